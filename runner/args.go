package runner

import (
	"strconv"

	"github.com/stanforge/stanrun/types"
)

// BuildArgs assembles the sampler argument list for one chain. cfg must
// already be normalized; dataFile and metricFile may be empty.
func BuildArgs(chainID int, cfg types.SampleConfig, dataFile, outputFile string) []string {
	args := []string{
		"id=" + strconv.Itoa(chainID),
		"random", "seed=" + strconv.FormatInt(cfg.Seed, 10),
	}
	if dataFile != "" {
		args = append(args, "data", "file="+dataFile)
	}
	args = append(args,
		"output", "file="+outputFile, "refresh="+strconv.Itoa(cfg.Refresh),
		"method=sample",
		"num_samples="+strconv.Itoa(cfg.IterSampling),
		"num_warmup="+strconv.Itoa(cfg.IterWarmup),
		"thin="+strconv.Itoa(cfg.Thin),
	)
	if cfg.SaveWarmup {
		args = append(args, "save_warmup=1")
	}

	if cfg.FixedParam {
		return append(args, "algorithm=fixed_param")
	}

	args = append(args,
		"algorithm=hmc",
		"engine=nuts",
		"max_depth="+strconv.Itoa(cfg.MaxTreeDepth),
	)
	if cfg.MetricFile != "" {
		args = append(args, "metric_file="+cfg.MetricFile)
	}
	args = append(args,
		"adapt", "engaged=1",
		"delta="+strconv.FormatFloat(cfg.AdaptDelta, 'g', -1, 64),
	)
	return args
}
