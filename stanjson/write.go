// Package stanjson serializes caller-supplied data into the JSON input
// dialect the CmdStan sampler accepts: a single object whose values are
// numbers, 0/1-encoded booleans, null, or arbitrarily nested arrays.
//
// All values are validated before any byte reaches the destination file, so
// a failed write never leaves a partial document behind.
package stanjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"reflect"
	"sort"
)

// ArrayValuer lets column/array-like types (such as rdump.Value) supply
// their shape and row-major data without this package depending on them.
type ArrayValuer interface {
	ArrayDims() []int
	ArrayData() []float64
}

// UnsupportedTypeError reports a top-level value with no numeric or boolean
// JSON encoding.
type UnsupportedTypeError struct {
	Var  string
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("variable %q: cannot encode value of type %s", e.Var, e.Type)
}

// InvalidValueError reports a structurally invalid value: a non-numeric
// leaf inside an array, or a NaN/infinite number anywhere.
type InvalidValueError struct {
	Var string
	Msg string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("variable %q: %s", e.Var, e.Msg)
}

// Write validates data and writes it as a JSON document to path,
// overwriting any existing content.
func Write(path string, data map[string]any) error {
	doc, err := Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, doc, 0o644)
}

// Marshal validates data and returns the encoded JSON document. Keys are
// emitted in sorted order for deterministic output.
func Marshal(data map[string]any) ([]byte, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		enc, err := encodeValue(name, data[name])
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(enc)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue normalizes a top-level value into a JSON-encodable form.
func encodeValue(name string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if av, ok := v.(ArrayValuer); ok {
		return encodeArrayValuer(name, av)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return boolToInt(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if err := checkFinite(name, f); err != nil {
			return nil, err
		}
		return f, nil
	case reflect.Slice, reflect.Array:
		return encodeSlice(name, rv)
	default:
		return nil, &UnsupportedTypeError{Var: name, Type: rv.Type()}
	}
}

// encodeSlice recursively normalizes nested sequences, preserving shape.
// Zero-length dimensions encode as [] at every depth.
func encodeSlice(name string, rv reflect.Value) (any, error) {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		for elem.Kind() == reflect.Interface && !elem.IsNil() {
			elem = elem.Elem()
		}

		switch elem.Kind() {
		case reflect.Slice, reflect.Array:
			nested, err := encodeSlice(name, elem)
			if err != nil {
				return nil, err
			}
			out[i] = nested
		case reflect.Bool:
			out[i] = boolToInt(elem.Bool())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out[i] = elem.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out[i] = elem.Uint()
		case reflect.Float32, reflect.Float64:
			f := elem.Float()
			if err := checkFinite(name, f); err != nil {
				return nil, err
			}
			out[i] = f
		default:
			return nil, &InvalidValueError{
				Var: name,
				Msg: fmt.Sprintf("non-numeric element of type %s in numeric array", elem.Type()),
			}
		}
	}
	return out, nil
}

// encodeArrayValuer expands row-major flat data into nested arrays matching
// the declared dims. A dims-less value encodes as a scalar.
func encodeArrayValuer(name string, av ArrayValuer) (any, error) {
	dims := av.ArrayDims()
	data := av.ArrayData()
	for _, f := range data {
		if err := checkFinite(name, f); err != nil {
			return nil, err
		}
	}

	if len(dims) == 0 {
		if len(data) != 1 {
			return nil, &InvalidValueError{
				Var: name,
				Msg: fmt.Sprintf("scalar value carries %d elements", len(data)),
			}
		}
		return data[0], nil
	}

	n := 1
	for _, d := range dims {
		n *= d
	}
	if n != len(data) {
		return nil, &InvalidValueError{
			Var: name,
			Msg: fmt.Sprintf("dims %v require %d values, got %d", dims, n, len(data)),
		}
	}
	return nestRowMajor(data, dims), nil
}

// nestRowMajor folds row-major flat data into nested []any per dims.
func nestRowMajor(data []float64, dims []int) any {
	if len(dims) == 1 {
		out := make([]any, len(data))
		for i, f := range data {
			out[i] = f
		}
		return out
	}

	stride := len(data)
	if dims[0] > 0 {
		stride = len(data) / dims[0]
	}
	out := make([]any, dims[0])
	for i := 0; i < dims[0]; i++ {
		out[i] = nestRowMajor(data[i*stride:(i+1)*stride], dims[1:])
	}
	return out
}

func checkFinite(name string, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &InvalidValueError{Var: name, Msg: fmt.Sprintf("non-finite value %g", f)}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
