// Package metric reads an inverse-mass-matrix specification from a prior
// run, in either JSON or dump format, and reports its shape.
package metric

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stanforge/stanrun/rdump"
)

// entryKey is the single recognized top-level key in a metric file.
const entryKey = "inv_metric"

// EntryError reports a metric file whose inv_metric entry is absent or has
// an unusable shape.
type EntryError struct {
	Path string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("metric file %s, bad or missing entry %q", e.Path, entryKey)
}

// Read returns the shape of the inverse metric at path: a one-element
// slice [N] for a diagonal vector, [N, N] for a dense matrix. Files with a
// .json extension must be JSON; anything else is tried as JSON first and
// then as a dump file.
func Read(path string) ([]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metric file %s: %w", path, err)
	}

	dims, err := readJSON(raw)
	if err == nil {
		return dims, nil
	}
	var se *entryShapeError
	if errors.As(err, &se) {
		// Valid JSON, unusable entry. No point trying the dump grammar.
		return nil, &EntryError{Path: path}
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, fmt.Errorf("metric file %s: %w", path, err)
	}

	vals, err := rdump.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("metric file %s: %w", path, err)
	}
	v, ok := vals[entryKey]
	if !ok {
		return nil, &EntryError{Path: path}
	}
	dims = v.ArrayDims()
	switch {
	case len(dims) == 1:
		return dims, nil
	case len(dims) == 2 && dims[0] == dims[1]:
		return dims, nil
	}
	return nil, &EntryError{Path: path}
}

// entryShapeError marks JSON content that parsed but had a missing or
// malformed inv_metric entry, as opposed to content that is not JSON.
type entryShapeError struct{}

func (*entryShapeError) Error() string { return "bad or missing inv_metric entry" }

func readJSON(raw []byte) ([]int, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	entry, ok := doc[entryKey]
	if !ok {
		return nil, &entryShapeError{}
	}

	var diag []float64
	if err := json.Unmarshal(entry, &diag); err == nil {
		if len(diag) == 0 {
			return nil, &entryShapeError{}
		}
		return []int{len(diag)}, nil
	}

	var dense [][]float64
	if err := json.Unmarshal(entry, &dense); err != nil {
		return nil, &entryShapeError{}
	}
	n := len(dense)
	if n == 0 {
		return nil, &entryShapeError{}
	}
	for _, row := range dense {
		if len(row) != n {
			return nil, &entryShapeError{}
		}
	}
	return []int{n, n}, nil
}
