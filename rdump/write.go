package rdump

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Write emits dump-format assignments for each entry in data, sorted by
// name for deterministic output. Arrays are flattened back to the file
// format's column-major order.
func Write(w io.Writer, data map[string]Value) error {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s <- %s\n", name, formatValue(data[name])); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes dump-format data to path, replacing any existing file.
func WriteFile(path string, data map[string]Value) error {
	var sb strings.Builder
	if err := Write(&sb, data); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func formatValue(v Value) string {
	if v.IsScalar() {
		return formatNumber(v.Scalar(), v.IsInt())
	}

	flat := FlattenColumnMajor(v.data, v.dims)
	parts := make([]string, len(flat))
	for i, f := range flat {
		parts[i] = formatNumber(f, false)
	}
	body := "c(" + strings.Join(parts, ", ") + ")"

	if len(v.dims) < 2 {
		return body
	}
	dimParts := make([]string, len(v.dims))
	for i, d := range v.dims {
		dimParts[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("structure(%s, .Dim=c(%s))", body, strings.Join(dimParts, ", "))
}

func formatNumber(f float64, isInt bool) string {
	if isInt || f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
