package config

import (
	"fmt"
	"time"

	"github.com/stanforge/stanrun/types"
)

// Config represents a stanrun.yaml configuration file.
// All values are optional and act as defaults for stanrun run flags.
// CLI flags always override config values.
type Config struct {
	// CmdStan pins the CmdStan installation directory. Overrides the
	// CMDSTAN environment variable and ~/.cmdstan resolution.
	CmdStan string `yaml:"cmdstan"`
	// OutputDir receives per-chain output files. Default: a temp dir.
	OutputDir string        `yaml:"output_dir"`
	Sampler   SamplerConfig `yaml:"sampler"`
	Compile   CompileConfig `yaml:"compile"`
}

// SamplerConfig holds sampler defaults from the config file.
type SamplerConfig struct {
	Chains       int      `yaml:"chains"`
	IterWarmup   int      `yaml:"iter_warmup"`
	IterSampling int      `yaml:"iter_sampling"`
	Thin         int      `yaml:"thin"`
	SaveWarmup   bool     `yaml:"save_warmup"`
	Seed         int64    `yaml:"seed"`
	AdaptDelta   float64  `yaml:"adapt_delta"`
	MaxDepth     int      `yaml:"max_depth"`
	Refresh      int      `yaml:"refresh"`
	MetricFile   string   `yaml:"metric_file"`
	Timeout      Duration `yaml:"timeout"`
}

// CompileConfig holds model compilation defaults from the config file.
type CompileConfig struct {
	StancOptions map[string]string `yaml:"stanc_options,omitempty"`
	CppOptions   map[string]string `yaml:"cpp_options,omitempty"`
	Force        bool              `yaml:"force"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// SampleConfig converts the file's sampler section into a normalized
// types.SampleConfig.
func (c *Config) SampleConfig() types.SampleConfig {
	s := c.Sampler
	return types.SampleConfig{
		Chains:       s.Chains,
		IterWarmup:   s.IterWarmup,
		IterSampling: s.IterSampling,
		Thin:         s.Thin,
		SaveWarmup:   s.SaveWarmup,
		Seed:         s.Seed,
		AdaptDelta:   s.AdaptDelta,
		MaxTreeDepth: s.MaxDepth,
		Refresh:      s.Refresh,
		MetricFile:   s.MetricFile,
	}.Normalize()
}
