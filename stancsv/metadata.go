// Package stancsv parses and validates the CmdStan sampler's CSV output:
// the leading comment block of configuration declarations, the column-name
// header, the optional warmup draws, the adaptation (mass matrix) comment
// block, and the sampling draws.
package stancsv

// Metadata is everything derived from parsing one completed output file.
// Read-only once returned.
type Metadata struct {
	// Model is the model name declared in the file's config block.
	Model string `msgpack:"model" json:"model"`
	// Method is the declared method (e.g. "sample").
	Method string `msgpack:"method" json:"method"`
	// NumSamples is the file-declared sampling iteration count.
	NumSamples int `msgpack:"num_samples" json:"num_samples"`
	// NumWarmup is the file-declared warmup iteration count.
	NumWarmup int `msgpack:"num_warmup" json:"num_warmup"`
	// SaveWarmup is true when the file declares save_warmup = 1.
	SaveWarmup bool `msgpack:"save_warmup" json:"save_warmup"`
	// Thin is the file-declared thinning interval.
	Thin int `msgpack:"thin" json:"thin"`
	// Seed is the file-declared RNG seed.
	Seed int64 `msgpack:"seed" json:"seed"`
	// MaxDepth is the declared NUTS tree-depth bound.
	MaxDepth int `msgpack:"max_depth" json:"max_depth"`
	// Delta is the declared adaptation target acceptance statistic.
	Delta float64 `msgpack:"delta" json:"delta"`
	// StepSize is the adapted step size from the adaptation block.
	StepSize float64 `msgpack:"step_size" json:"step_size"`
	// MetricKind is the declared metric ("diag_e", "dense_e", "unit_e").
	MetricKind string `msgpack:"metric_kind" json:"metric_kind"`
	// MetricDims is the shape of the inverse metric found in the
	// adaptation block: [N] for diagonal, [N, N] for dense.
	MetricDims []int `msgpack:"metric_dims,omitempty" json:"metric_dims,omitempty"`
	// ColumnNames is the ordered header of the data rows.
	ColumnNames []string `msgpack:"column_names" json:"column_names"`
	// DrawsSampling is the count of sampling rows actually found.
	DrawsSampling int `msgpack:"draws_sampling" json:"draws_sampling"`
	// DrawsWarmup is the count of warmup rows actually found.
	DrawsWarmup int `msgpack:"draws_warmup" json:"draws_warmup"`
	// MethodVars maps each sampler-internal column to its 0-based offset.
	MethodVars map[string][]int `msgpack:"method_vars" json:"method_vars"`
	// StanVarDims maps each model variable to its dimension tuple.
	StanVarDims map[string][]int `msgpack:"stan_var_dims" json:"stan_var_dims"`
	// StanVarCols maps each model variable to its 0-based column offsets.
	StanVarCols map[string][]int `msgpack:"stan_var_cols" json:"stan_var_cols"`

	// raw holds the unconverted config declarations, keyed by name.
	// Used to distinguish absent keys from zero values.
	raw map[string]string
}

// HasConfigKey reports whether the file's config block declared key.
func (m *Metadata) HasConfigKey(key string) bool {
	_, ok := m.raw[key]
	return ok
}
