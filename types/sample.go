package types

import "fmt"

// CmdStan sampler defaults. Applied by SampleConfig.Normalize when the
// corresponding field is unset, matching the sampler's own argument defaults.
const (
	DefaultIterWarmup   = 1000
	DefaultIterSampling = 1000
	DefaultThin         = 1
	DefaultAdaptDelta   = 0.8
	DefaultMaxTreeDepth = 10
	DefaultRefresh      = 100
)

// SampleConfig is the caller's declared expectation for a sampling run.
// It drives both the sampler argument list and output file validation.
// Construct, Normalize, then treat as immutable.
type SampleConfig struct {
	// Chains is the number of independent chains to run.
	Chains int
	// IterWarmup is the number of warmup (adaptation) iterations.
	IterWarmup int
	// IterSampling is the number of post-warmup sampling iterations.
	IterSampling int
	// Thin retains every Nth draw.
	Thin int
	// SaveWarmup includes warmup draws in the output file.
	SaveWarmup bool
	// Seed is the RNG seed. Zero means the sampler chooses.
	Seed int64
	// AdaptDelta is the target acceptance statistic for step-size adaptation.
	AdaptDelta float64
	// MaxTreeDepth bounds the NUTS tree depth.
	MaxTreeDepth int
	// FixedParam runs the sampler in fixed-parameter mode (no adaptation,
	// no mass matrix in the output).
	FixedParam bool
	// MetricFile optionally supplies a precomputed inverse metric.
	MetricFile string
	// Refresh is the progress-line interval in iterations.
	Refresh int
}

// Normalize fills unset fields with sampler defaults and returns the result.
// The receiver is not modified.
func (c SampleConfig) Normalize() SampleConfig {
	if c.Chains == 0 {
		c.Chains = 1
	}
	if c.IterWarmup == 0 {
		c.IterWarmup = DefaultIterWarmup
	}
	if c.IterSampling == 0 {
		c.IterSampling = DefaultIterSampling
	}
	if c.Thin == 0 {
		c.Thin = DefaultThin
	}
	if c.AdaptDelta == 0 {
		c.AdaptDelta = DefaultAdaptDelta
	}
	if c.MaxTreeDepth == 0 {
		c.MaxTreeDepth = DefaultMaxTreeDepth
	}
	if c.Refresh == 0 {
		c.Refresh = DefaultRefresh
	}
	return c
}

// Validate checks a normalized config for values the sampler would reject.
func (c SampleConfig) Validate() error {
	if c.Chains < 1 {
		return fmt.Errorf("chains must be >= 1, got %d", c.Chains)
	}
	if c.IterWarmup < 0 {
		return fmt.Errorf("iter_warmup must be >= 0, got %d", c.IterWarmup)
	}
	if c.IterSampling < 1 {
		return fmt.Errorf("iter_sampling must be >= 1, got %d", c.IterSampling)
	}
	if c.Thin < 1 {
		return fmt.Errorf("thin must be >= 1, got %d", c.Thin)
	}
	if c.AdaptDelta <= 0 || c.AdaptDelta >= 1 {
		return fmt.Errorf("adapt_delta must be in (0, 1), got %g", c.AdaptDelta)
	}
	if c.MaxTreeDepth < 1 {
		return fmt.Errorf("max_treedepth must be >= 1, got %d", c.MaxTreeDepth)
	}
	if c.Seed < 0 {
		return fmt.Errorf("seed must be >= 0, got %d", c.Seed)
	}
	return nil
}

// IterTotal is the total iteration count a chain reports progress against.
func (c SampleConfig) IterTotal() int {
	return c.IterWarmup + c.IterSampling
}
