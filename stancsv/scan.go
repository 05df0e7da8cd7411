package stancsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stanforge/stanrun/iox"
)

// commentMarker prefixes every non-data line in the output file.
const commentMarker = "#"

// Adaptation block markers written by the sampler.
const (
	adaptTerminated  = "# Adaptation terminated"
	stepSizeLabel    = "# Step size"
	diagMetricLabel  = "# Diagonal elements of inverse mass matrix:"
	denseMetricLabel = "# Elements of inverse mass matrix:"
)

// ScanSamplerCSV parses the output file at path without cross-checking it
// against any expectation. fixedParam skips the warmup and adaptation
// sections, which fixed-parameter runs do not emit.
func ScanSamplerCSV(path string, fixedParam bool) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("output file %s: %w", path, err)
	}
	defer iox.DiscardClose(f)

	return scan(f, fixedParam)
}

func scan(r io.Reader, fixedParam bool) (*Metadata, error) {
	ls := &lineScanner{s: bufio.NewScanner(r)}
	ls.s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	meta := &Metadata{raw: make(map[string]string)}
	if err := scanConfig(ls, meta); err != nil {
		return nil, err
	}
	if err := scanColumnNames(ls, meta); err != nil {
		return nil, err
	}
	if !fixedParam {
		scanWarmupIters(ls, meta)
		if err := scanAdaptation(ls, meta); err != nil {
			return nil, err
		}
	}
	if err := scanSamplingIters(ls, meta); err != nil {
		return nil, err
	}
	if err := ls.s.Err(); err != nil {
		return nil, err
	}

	var parseErr error
	if meta.MethodVars, parseErr = ParseMethodVars(meta.ColumnNames); parseErr != nil {
		return nil, parseErr
	}
	if meta.StanVarDims, meta.StanVarCols, parseErr = ParseStanVars(meta.ColumnNames); parseErr != nil {
		return nil, parseErr
	}
	return meta, nil
}

// lineScanner adds 1-based line numbers and single-line peeking on top of
// bufio.Scanner.
type lineScanner struct {
	s      *bufio.Scanner
	lineno int
	peeked *string
}

func (ls *lineScanner) next() (string, bool) {
	if ls.peeked != nil {
		line := *ls.peeked
		ls.peeked = nil
		ls.lineno++
		return line, true
	}
	if !ls.s.Scan() {
		return "", false
	}
	ls.lineno++
	return strings.TrimSpace(ls.s.Text()), true
}

func (ls *lineScanner) peek() (string, bool) {
	if ls.peeked != nil {
		return *ls.peeked, true
	}
	if !ls.s.Scan() {
		return "", false
	}
	line := strings.TrimSpace(ls.s.Text())
	ls.peeked = &line
	return line, true
}

// scanConfig consumes the leading comment block, collecting `key = value`
// declarations. The "(Default)" annotation is stripped. Comment lines
// without an assignment are structural and ignored.
func scanConfig(ls *lineScanner, meta *Metadata) error {
	for {
		line, ok := ls.peek()
		if !ok {
			return &ScanError{Line: ls.lineno, Msg: "no header found"}
		}
		if !strings.HasPrefix(line, commentMarker) {
			return nil
		}
		ls.next()

		body := strings.TrimSpace(strings.TrimPrefix(line, commentMarker))
		key, value, found := strings.Cut(body, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "(Default)"))
		if key == "" || strings.Contains(key, " ") {
			continue
		}
		meta.raw[key] = value
	}
}

// scanColumnNames consumes the header line.
func scanColumnNames(ls *lineScanner, meta *Metadata) error {
	line, ok := ls.next()
	if !ok || line == "" {
		return &ScanError{Line: ls.lineno, Msg: "no column names found"}
	}
	meta.ColumnNames = strings.Split(line, ",")
	applyConfig(meta)
	return nil
}

// scanWarmupIters counts warmup draws. They are present only when the file
// itself declares save_warmup = 1, and run until the adaptation comment
// block begins.
func scanWarmupIters(ls *lineScanner, meta *Metadata) {
	if !meta.SaveWarmup {
		return
	}
	for {
		line, ok := ls.peek()
		if !ok || strings.HasPrefix(line, commentMarker) {
			return
		}
		ls.next()
		meta.DrawsWarmup++
	}
}

// scanAdaptation validates the adaptation comment block: the terminator
// marker, the step size, and the diagonal or dense inverse mass matrix.
func scanAdaptation(ls *lineScanner, meta *Metadata) error {
	line, ok := ls.next()
	if !ok || line != adaptTerminated {
		return &ScanError{Line: ls.lineno, Msg: fmt.Sprintf("expecting metric, found:\n\t%q", line)}
	}

	line, ok = ls.next()
	if !ok {
		return &ScanError{Line: ls.lineno, Msg: "expecting step size, found end of file"}
	}
	label, value, found := strings.Cut(line, "=")
	if !found || strings.TrimSpace(label) != stepSizeLabel {
		return &ScanError{Line: ls.lineno, Msg: fmt.Sprintf("expecting step size, found:\n\t%q", line)}
	}
	stepSize, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return &ScanError{Line: ls.lineno, Msg: fmt.Sprintf("invalid step size: %s", value)}
	}
	meta.StepSize = stepSize

	if meta.MetricKind == "unit_e" {
		return nil
	}

	line, ok = ls.next()
	if !ok {
		return &ScanError{Line: ls.lineno, Msg: "invalid or missing mass matrix specification"}
	}
	switch {
	case meta.MetricKind == "diag_e" && line == diagMetricLabel:
		row, ok := ls.next()
		if !ok || !strings.HasPrefix(row, commentMarker) {
			return &ScanError{Line: ls.lineno, Msg: "invalid or missing mass matrix specification"}
		}
		n := len(splitMetricRow(row))
		meta.MetricDims = []int{n}
	case meta.MetricKind == "dense_e" && line == denseMetricLabel:
		row, ok := ls.next()
		if !ok || !strings.HasPrefix(row, commentMarker) {
			return &ScanError{Line: ls.lineno, Msg: "invalid or missing mass matrix specification"}
		}
		n := len(splitMetricRow(row))
		for i := 1; i < n; i++ {
			row, ok = ls.next()
			if !ok || !strings.HasPrefix(row, commentMarker) {
				return &ScanError{Line: ls.lineno, Msg: "invalid or missing mass matrix specification"}
			}
			// Rows are either full (N values) or lower-triangular (i+1).
			if got := len(splitMetricRow(row)); got != n && got != i+1 {
				return &ScanError{Line: ls.lineno, Msg: "invalid or missing mass matrix specification"}
			}
		}
		meta.MetricDims = []int{n, n}
	default:
		return &ScanError{Line: ls.lineno, Msg: "invalid or missing mass matrix specification"}
	}
	return nil
}

// scanSamplingIters counts and shape-checks the data rows. Comment lines
// (the trailing timing block) are skipped.
func scanSamplingIters(ls *lineScanner, meta *Metadata) error {
	numCols := len(meta.ColumnNames)
	for {
		line, ok := ls.next()
		if !ok {
			return nil
		}
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		if got := len(strings.Split(line, ",")); got != numCols {
			return &ScanError{
				Line: ls.lineno,
				Msg:  fmt.Sprintf("bad draw, expected %d items, found %d", numCols, got),
			}
		}
		meta.DrawsSampling++
	}
}

// splitMetricRow splits a "# v1, v2, ..." comment line into its values.
func splitMetricRow(row string) []string {
	body := strings.TrimSpace(strings.TrimPrefix(row, commentMarker))
	if body == "" {
		return nil
	}
	return strings.Split(body, ",")
}

// applyConfig converts the collected raw declarations into typed fields.
// Unknown keys stay available through HasConfigKey.
func applyConfig(meta *Metadata) {
	meta.Model = meta.raw["model"]
	meta.Method = firstWord(meta.raw["method"])
	meta.NumSamples = atoiOr(meta.raw["num_samples"], 0)
	meta.NumWarmup = atoiOr(meta.raw["num_warmup"], 0)
	meta.SaveWarmup = meta.raw["save_warmup"] == "1" || meta.raw["save_warmup"] == "true"
	meta.Thin = atoiOr(meta.raw["thin"], 1)
	meta.Seed = int64(atoiOr(meta.raw["seed"], 0))
	meta.MaxDepth = atoiOr(meta.raw["max_depth"], 0)
	meta.Delta = atofOr(meta.raw["delta"], 0)
	meta.MetricKind = meta.raw["metric"]
	if meta.MetricKind == "" {
		meta.MetricKind = "diag_e"
	}
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func atoiOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func atofOr(s string, def float64) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}
