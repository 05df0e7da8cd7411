package stancsv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// methodVarSuffix marks sampler-internal diagnostic columns (lp__,
// accept_stat__, stepsize__, treedepth__, n_leapfrog__, divergent__,
// energy__).
const methodVarSuffix = "__"

// ParseMethodVars maps each sampler-internal column name to its single
// 0-based column offset. Names without the internal suffix are ignored.
// A nil slice (as opposed to an empty one) is an error.
func ParseMethodVars(names []string) (map[string][]int, error) {
	if names == nil {
		return nil, errors.New(`missing argument "names"`)
	}
	vars := make(map[string][]int)
	for idx, name := range names {
		if strings.HasSuffix(name, methodVarSuffix) {
			vars[name] = []int{idx}
		}
	}
	return vars, nil
}

// ParseStanVars groups model-variable columns by base name. For each base it
// returns the dimension tuple and the 0-based column offsets in encounter
// order. Scalars get an empty dimension tuple.
//
// When the same base appears with differing bracket-index tuples, the last
// one seen determines the reported dimension. Earlier tuples are overridden
// without validation; callers wanting consistency must check the column
// count against the dimension product themselves.
func ParseStanVars(names []string) (map[string][]int, map[string][]int, error) {
	if names == nil {
		return nil, nil, errors.New(`missing argument "names"`)
	}

	dims := make(map[string][]int)
	cols := make(map[string][]int)
	for idx, name := range names {
		base, idxPart, bracketed := strings.Cut(name, "[")
		if strings.HasSuffix(base, methodVarSuffix) {
			continue
		}
		if !bracketed {
			dims[base] = []int{}
			cols[base] = []int{idx}
			continue
		}

		tuple, err := parseIndexTuple(idxPart)
		if err != nil {
			return nil, nil, fmt.Errorf("column name %q: %w", name, err)
		}
		dims[base] = tuple
		cols[base] = append(cols[base], idx)
	}
	return dims, cols, nil
}

// parseIndexTuple parses the "i1,i2,...]" tail of a bracket-indexed name.
func parseIndexTuple(s string) ([]int, error) {
	s = strings.TrimSuffix(s, "]")
	parts := strings.Split(s, ",")
	tuple := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad index %q", p)
		}
		tuple[i] = n
	}
	return tuple, nil
}
