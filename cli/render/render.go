// Package render writes command results to stdout as json, yaml, or an
// aligned table. The default follows the terminal: an interactive stdout
// gets a table, a pipe gets json so output stays scriptable. An explicit
// --format always wins. --no-color matters only for tables; the TUI views
// style themselves.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/stanforge/stanrun/cli/tui"
	"github.com/stanforge/stanrun/iox"
)

// Format names an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string. Empty input parses to the empty
// Format so the caller can apply its terminal-based default.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer writes command results in one configured format.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer builds a renderer from the command's flags, defaulting the
// format by whether stdout is a terminal.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatJSON
		if isTTY(os.Stdout) {
			format = FormatTable
		}
	}
	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     os.Stdout,
	}, nil
}

// NewRendererWithWriter builds a renderer over an arbitrary writer.
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Render writes data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		return enc.Encode(data)
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI hands data to the named interactive view.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

// renderTable lays data out with a tabwriter. A slice becomes one row per
// element under a header line; a struct becomes a field-per-line listing.
func (r *Renderer) renderTable(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice {
		return r.renderRows(v)
	}
	return r.renderFields(v)
}

func (r *Renderer) renderRows(v reflect.Value) error {
	if v.Len() == 0 {
		fmt.Fprintln(r.out, "(no results)")
		return nil
	}

	elem := v.Index(0)
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintf(r.out, "%v\n", v.Index(i).Interface())
		}
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer iox.DiscardErr(w.Flush)

	cols := make([]string, elem.NumField())
	for i := range cols {
		cols[i] = columnName(elem.Type().Field(i))
	}
	fmt.Fprintln(w, strings.Join(cols, "\t"))

	for i := 0; i < v.Len(); i++ {
		row := v.Index(i)
		for row.Kind() == reflect.Ptr {
			row = row.Elem()
		}
		cells := make([]string, row.NumField())
		for j := range cells {
			cells[j] = cell(row.Field(j))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return nil
}

func (r *Renderer) renderFields(v reflect.Value) error {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer iox.DiscardErr(w.Flush)

	if v.Kind() != reflect.Struct {
		fmt.Fprintf(w, "%v\n", v.Interface())
		return nil
	}
	for i := 0; i < v.NumField(); i++ {
		fmt.Fprintf(w, "%s:\t%s\n", columnName(v.Type().Field(i)), cell(v.Field(i)))
	}
	return nil
}

// columnName prefers the json tag so tables and json output agree on
// field naming; untagged fields lowercase the Go name.
func columnName(f reflect.StructField) string {
	if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
		return tag
	}
	return strings.ToLower(f.Name)
}

// cell formats one table cell. Collection-valued fields (column name
// lists, variable dimension maps) show their size rather than spilling
// hundreds of entries across the row.
func cell(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		return "{...}"
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
