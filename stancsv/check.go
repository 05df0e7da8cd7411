package stancsv

import (
	"fmt"

	"github.com/stanforge/stanrun/types"
)

// CheckSamplerCSV scans the output file at path and cross-checks it against
// the run configuration. Structural problems surface as the scanner's own
// error; expectation mismatches are reported as a ConfigError naming the
// file.
func CheckSamplerCSV(path string, cfg types.SampleConfig) (*Metadata, error) {
	cfg = cfg.Normalize()

	meta, err := ScanSamplerCSV(path, cfg.FixedParam)
	if err != nil {
		return nil, err
	}
	if err := checkAgainst(meta, cfg); err != nil {
		return nil, &ConfigError{Path: path, Msg: err.Error()}
	}
	return meta, nil
}

func checkAgainst(meta *Metadata, cfg types.SampleConfig) error {
	if cfg.Thin > 1 && meta.Thin != cfg.Thin {
		return fmt.Errorf("config error, expected thin = %d, found %d", cfg.Thin, meta.Thin)
	}
	if cfg.SaveWarmup != meta.SaveWarmup {
		return fmt.Errorf(
			"config error, expected save_warmup = %d, found %d",
			boolToInt(cfg.SaveWarmup), boolToInt(meta.SaveWarmup),
		)
	}

	// The expectation comes from the caller's configuration, not the
	// file's declared thin. A thin=7 file checked with thin unset must
	// fail the draw count, not shrink the expectation to match.
	expected := ceilDiv(cfg.IterSampling, cfg.Thin)
	if cfg.SaveWarmup {
		expected += ceilDiv(cfg.IterWarmup, cfg.Thin)
	}
	if found := meta.DrawsSampling + meta.DrawsWarmup; found != expected {
		return fmt.Errorf("expected %d draws, found %d", expected, found)
	}
	return nil
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
