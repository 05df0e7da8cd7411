package rdump

import "fmt"

// Value is a parsed dump entry: a numeric scalar or a multi-dimensional
// array. Array data is stored row-major; the codec transposes the file's
// column-major layout on parse so that At indexes match the conventional
// (row, column, ...) order.
type Value struct {
	dims  []int
	data  []float64
	isInt bool
}

// Scalar constructs a scalar Value.
func Scalar(v float64, isInt bool) Value {
	return Value{data: []float64{v}, isInt: isInt}
}

// Vector constructs a one-dimensional Value.
func Vector(v []float64) Value {
	return Value{dims: []int{len(v)}, data: v}
}

// Array constructs a Value from row-major data and explicit dims.
func Array(data []float64, dims []int) (Value, error) {
	if n := dimProduct(dims); n != len(data) {
		return Value{}, fmt.Errorf("dims %v require %d values, got %d", dims, n, len(data))
	}
	return Value{dims: dims, data: data}, nil
}

// IsScalar reports whether the value has no dimensions.
func (v Value) IsScalar() bool { return len(v.dims) == 0 }

// IsInt reports whether a scalar was written without a decimal point.
func (v Value) IsInt() bool { return v.isInt }

// Dims returns the dimension tuple. Empty for scalars.
func (v Value) Dims() []int { return v.dims }

// Scalar returns the scalar value. Panics if the value is an array.
func (v Value) Scalar() float64 {
	if !v.IsScalar() {
		panic("rdump: Scalar called on array value")
	}
	return v.data[0]
}

// Int returns the scalar as an integer.
func (v Value) Int() int64 { return int64(v.Scalar()) }

// Flat returns the row-major flattened data.
func (v Value) Flat() []float64 { return v.data }

// Len returns the number of elements.
func (v Value) Len() int { return len(v.data) }

// At returns the element at the given row-major multi-index.
func (v Value) At(idx ...int) float64 {
	if len(idx) != len(v.dims) {
		panic(fmt.Sprintf("rdump: At called with %d indices on rank-%d value", len(idx), len(v.dims)))
	}
	off := 0
	for k, i := range idx {
		if i < 0 || i >= v.dims[k] {
			panic(fmt.Sprintf("rdump: index %d out of range for dim %d (size %d)", i, k, v.dims[k]))
		}
		off = off*v.dims[k] + i
	}
	return v.data[off]
}

// ArrayDims implements the shape half of the stanjson.ArrayValuer interface.
func (v Value) ArrayDims() []int { return v.dims }

// ArrayData implements the data half of the stanjson.ArrayValuer interface.
// Returns row-major data; scalars yield a single element.
func (v Value) ArrayData() []float64 { return v.data }

// ReshapeColumnMajor reassembles a column-major flat sequence (first index
// varies fastest, the dump file layout) into row-major data for the given
// dims. The element at multi-index (i1,...,ik) of the result equals
// flat[i1 + d1*(i2 + d2*(i3 + ...))].
func ReshapeColumnMajor(flat []float64, dims []int) ([]float64, error) {
	n := dimProduct(dims)
	if n != len(flat) {
		return nil, fmt.Errorf("dims %v require %d values, got %d", dims, n, len(flat))
	}
	if len(dims) < 2 {
		out := make([]float64, len(flat))
		copy(out, flat)
		return out, nil
	}

	out := make([]float64, n)
	idx := make([]int, len(dims))
	for cm := 0; cm < n; cm++ {
		// cm is the column-major offset of idx; compute the row-major one.
		rm := 0
		for k := 0; k < len(dims); k++ {
			rm = rm*dims[k] + idx[k]
		}
		out[rm] = flat[cm]

		// Column-major order increments the first index fastest.
		for k := 0; k < len(idx); k++ {
			idx[k]++
			if idx[k] < dims[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out, nil
}

// FlattenColumnMajor is the inverse of ReshapeColumnMajor: it flattens
// row-major data back into the dump file's column-major order.
func FlattenColumnMajor(data []float64, dims []int) []float64 {
	if len(dims) < 2 {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	n := dimProduct(dims)
	out := make([]float64, n)
	idx := make([]int, len(dims))
	for cm := 0; cm < n; cm++ {
		rm := 0
		for k := 0; k < len(dims); k++ {
			rm = rm*dims[k] + idx[k]
		}
		out[cm] = data[rm]

		for k := 0; k < len(idx); k++ {
			idx[k]++
			if idx[k] < dims[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out
}

func dimProduct(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
