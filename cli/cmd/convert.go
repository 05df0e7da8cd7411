package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/stanforge/stanrun/cli/render"
	"github.com/stanforge/stanrun/rdump"
	"github.com/stanforge/stanrun/stanjson"
)

// ConvertResponse is the rendered result of a convert.
type ConvertResponse struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Vars   int    `json:"vars"`
}

// ConvertCommand returns the convert command.
// Convert translates input data files between the R dump format and Stan
// JSON. The direction is inferred from the output file extension.
func ConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a data file between R dump and Stan JSON",
		ArgsUsage: "<input> <output>",
		Flags:     ReadOnlyFlags(),
		Action:    convertAction,
	}
}

func convertAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("input and output files required", 1)
	}
	input := c.Args().Get(0)
	output := c.Args().Get(1)

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for convert command", 1)
	}

	var count int
	switch strings.ToLower(filepath.Ext(output)) {
	case ".json":
		count, err = convertToJSON(input, output)
	case ".r", ".rdump", ".data":
		count, err = convertToRdump(input, output)
	default:
		return cli.Exit(fmt.Sprintf("cannot infer output format from %q (use .json, .R, or .rdump)", output), 1)
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return r.Render(ConvertResponse{
		Input:  input,
		Output: output,
		Vars:   count,
	})
}

func convertToJSON(input, output string) (int, error) {
	vars, err := rdump.Load(input)
	if err != nil {
		return 0, err
	}

	data := make(map[string]any, len(vars))
	for name, v := range vars {
		data[name] = v
	}
	if err := stanjson.Write(output, data); err != nil {
		return 0, err
	}
	return len(vars), nil
}

func convertToRdump(input, output string) (int, error) {
	raw, err := os.ReadFile(input)
	if err != nil {
		return 0, err
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var parsed map[string]any
	if err := dec.Decode(&parsed); err != nil {
		return 0, fmt.Errorf("invalid JSON in %s: %w", input, err)
	}

	vars := make(map[string]rdump.Value, len(parsed))
	for name, v := range parsed {
		val, err := jsonToValue(v)
		if err != nil {
			return 0, fmt.Errorf("variable %q: %w", name, err)
		}
		vars[name] = val
	}

	if err := rdump.WriteFile(output, vars); err != nil {
		return 0, err
	}
	return len(vars), nil
}

// jsonToValue converts a decoded JSON value into an rdump value.
// Nested arrays must be rectangular.
func jsonToValue(v any) (rdump.Value, error) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return rdump.Value{}, err
		}
		isInt := !strings.ContainsAny(x.String(), ".eE")
		return rdump.Scalar(f, isInt), nil

	case bool:
		f := 0.0
		if x {
			f = 1.0
		}
		return rdump.Scalar(f, true), nil

	case []any:
		dims, err := arrayDims(x)
		if err != nil {
			return rdump.Value{}, err
		}
		acc := make([]float64, 0, len(x))
		flat, err := flattenJSON(x, &acc)
		if err != nil {
			return rdump.Value{}, err
		}
		return rdump.Array(flat, dims)

	default:
		return rdump.Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// arrayDims infers the dimension tuple of a nested JSON array and checks
// that it is rectangular.
func arrayDims(arr []any) ([]int, error) {
	dims := []int{len(arr)}
	if len(arr) == 0 {
		return dims, nil
	}
	if inner, ok := arr[0].([]any); ok {
		innerDims, err := arrayDims(inner)
		if err != nil {
			return nil, err
		}
		for _, e := range arr {
			row, ok := e.([]any)
			if !ok || len(row) != len(inner) {
				return nil, fmt.Errorf("ragged array")
			}
		}
		return append(dims, innerDims...), nil
	}
	return dims, nil
}

// flattenJSON appends the array's numbers in row-major order.
func flattenJSON(arr []any, acc *[]float64) ([]float64, error) {
	for _, e := range arr {
		switch x := e.(type) {
		case json.Number:
			f, err := x.Float64()
			if err != nil {
				return nil, err
			}
			*acc = append(*acc, f)
		case []any:
			if _, err := flattenJSON(x, acc); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported element type %T", e)
		}
	}
	return *acc, nil
}
