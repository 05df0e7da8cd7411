// Package rdump implements the R dump data format used by the CmdStan
// sampler for data and metric files: one `name <- value` assignment per
// statement, where value is a numeric scalar, a bare array `c(...)`, or a
// `structure(c(...), .Dim=c(...))` with column-major element order.
package rdump

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stanforge/stanrun/iox"
)

// FormatErrorKind classifies dump parse failures.
type FormatErrorKind int

const (
	// FormatMismatch indicates the content is not in dump format at all.
	// Callers use this as a soft signal to try an alternate format.
	FormatMismatch FormatErrorKind = iota
	// FormatMalformed indicates dump-like content that violates the grammar.
	FormatMalformed
)

// FormatError represents a dump format failure.
type FormatError struct {
	Kind FormatErrorKind
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatMismatch reports whether err is a soft "not this format" failure,
// as opposed to malformed dump content.
func IsFormatMismatch(err error) bool {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Kind == FormatMismatch
	}
	return false
}

// Load parses the dump file at path.
func Load(path string) (map[string]Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dump file %s: %w", path, err)
	}
	defer iox.DiscardClose(f)
	return Parse(f)
}

// Parse reads dump-format assignments from r. Statements may span lines.
// Returns a FormatMismatch error when the content contains no assignment
// operator anywhere, and a FormatMalformed error for dump-like content that
// cannot be parsed.
func Parse(r io.Reader) (map[string]Value, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	text := string(raw)
	if !strings.Contains(text, "<-") {
		return nil, &FormatError{Kind: FormatMismatch, Msg: "no dump assignments found"}
	}

	data := make(map[string]Value)
	for _, stmt := range splitStatements(text) {
		lhs, rhs, _ := strings.Cut(stmt, "<-")
		name := strings.Trim(strings.TrimSpace(lhs), `"'`)
		if name == "" {
			return nil, &FormatError{Kind: FormatMalformed, Msg: fmt.Sprintf("assignment without a name: %q", stmt)}
		}
		val, err := ParseValue(strings.TrimSpace(rhs))
		if err != nil {
			return nil, err
		}
		data[name] = val
	}
	return data, nil
}

// splitStatements joins continuation lines and splits the content into one
// string per assignment. A new statement begins at each line containing the
// assignment operator.
func splitStatements(text string) []string {
	var stmts []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.Contains(trimmed, "<-") && cur.Len() > 0 {
			stmts = append(stmts, cur.String())
			cur.Reset()
		}
		cur.WriteString(trimmed)
	}
	if cur.Len() > 0 {
		stmts = append(stmts, cur.String())
	}

	// Leading junk before the first assignment is not dump content.
	var out []string
	for _, s := range stmts {
		if strings.Contains(s, "<-") {
			out = append(out, s)
		}
	}
	return out
}

// ParseValue parses a single right-hand side: a scalar literal, `c(...)`,
// or `structure(c(...), .Dim=c(...))`.
func ParseValue(rhs string) (Value, error) {
	switch {
	case strings.HasPrefix(rhs, "structure"):
		return parseStructure(rhs)
	case strings.HasPrefix(rhs, "c("):
		vals, err := parseNumberList(rhs)
		if err != nil {
			return Value{}, err
		}
		return Vector(vals), nil
	default:
		return parseScalar(rhs)
	}
}

func parseScalar(lit string) (Value, error) {
	lit = strings.TrimSpace(lit)
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return Scalar(float64(i), true), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, &FormatError{
			Kind: FormatMalformed,
			Msg:  fmt.Sprintf("bad value in dump file: %q", lit),
			Err:  err,
		}
	}
	return Scalar(f, false), nil
}

// parseStructure parses `structure(c(v1,...,vn), .Dim=c(d1,...,dk))` and
// transposes the column-major values into a row-major Value.
func parseStructure(rhs string) (Value, error) {
	inner, err := parenBody(rhs, "structure")
	if err != nil {
		return Value{}, err
	}

	valsPart, dimPart, found := strings.Cut(inner, ".Dim")
	if !found {
		return Value{}, &FormatError{
			Kind: FormatMalformed,
			Msg:  fmt.Sprintf("structure without .Dim clause: %q", rhs),
		}
	}
	valsPart = strings.TrimRight(strings.TrimSpace(valsPart), ",")
	dimPart = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(dimPart), "="))

	vals, err := parseNumberList(valsPart)
	if err != nil {
		return Value{}, err
	}

	dimVals, err := parseNumberList(dimPart)
	if err != nil {
		return Value{}, err
	}
	dims := make([]int, len(dimVals))
	for i, d := range dimVals {
		dims[i] = int(d)
	}

	data, err := ReshapeColumnMajor(vals, dims)
	if err != nil {
		return Value{}, &FormatError{
			Kind: FormatMalformed,
			Msg:  fmt.Sprintf("bad .Dim in dump file: %v", err),
		}
	}
	return Value{dims: dims, data: data}, nil
}

// parseNumberList parses `c(v1,...,vn)` into floats.
func parseNumberList(s string) ([]float64, error) {
	inner, err := parenBody(s, "c")
	if err != nil {
		return nil, err
	}
	parts := strings.Split(inner, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, &FormatError{
				Kind: FormatMalformed,
				Msg:  fmt.Sprintf("bad value in dump file: %q", p),
				Err:  err,
			}
		}
		vals = append(vals, f)
	}
	return vals, nil
}

// parenBody extracts the content of `prefix( ... )`, requiring balanced
// parentheses.
func parenBody(s, prefix string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, prefix) {
		return "", &FormatError{
			Kind: FormatMalformed,
			Msg:  fmt.Sprintf("expected %s(...), got %q", prefix, s),
		}
	}
	rest := strings.TrimSpace(s[len(prefix):])
	if !strings.HasPrefix(rest, "(") {
		return "", &FormatError{
			Kind: FormatMalformed,
			Msg:  fmt.Sprintf("expected %s(...), got %q", prefix, s),
		}
	}

	depth := 0
	for i, r := range rest {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if strings.TrimSpace(rest[i+1:]) != "" {
					return "", &FormatError{
						Kind: FormatMalformed,
						Msg:  fmt.Sprintf("trailing content after %s(...): %q", prefix, s),
					}
				}
				return rest[1:i], nil
			}
		}
	}
	return "", &FormatError{
		Kind: FormatMalformed,
		Msg:  fmt.Sprintf("unmatched parentheses: %q", s),
	}
}
