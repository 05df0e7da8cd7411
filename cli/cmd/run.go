package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/stanforge/stanrun/cli/config"
	"github.com/stanforge/stanrun/cli/render"
	"github.com/stanforge/stanrun/cli/tui"
	"github.com/stanforge/stanrun/metrics"
	"github.com/stanforge/stanrun/model"
	"github.com/stanforge/stanrun/runner"
	"github.com/stanforge/stanrun/stancsv"
	"github.com/stanforge/stanrun/types"
)

// Exit codes for the run command.
const (
	exitSuccess       = 0
	exitSamplerError  = 1
	exitLaunchFailure = 2
	exitInvalidOutput = 3
)

// RunCommand returns the run command.
// This is the only command that executes work.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Compile a model if needed and run the NUTS-HMC sampler",
		Flags: append([]cli.Flag{
			// Model flags
			&cli.StringFlag{
				Name:  "model",
				Usage: "Path to Stan model source (.stan)",
			},
			&cli.StringFlag{
				Name:  "exe",
				Usage: "Path to a previously compiled model executable",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Model name override",
			},
			&cli.BoolFlag{
				Name:  "force-compile",
				Usage: "Recompile even if the executable is newer than the source",
			},
			// Run identity
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Run ID (default: derived from the current time)",
			},
			// Data flags
			&cli.StringFlag{
				Name:  "data",
				Usage: "Path to input data file (Stan JSON or R dump)",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for per-chain output files (default: temp dir)",
			},
			// Sampler flags
			&cli.IntFlag{
				Name:  "chains",
				Usage: "Number of sampler chains",
			},
			&cli.IntFlag{
				Name:  "iter-warmup",
				Usage: "Warmup iterations per chain",
			},
			&cli.IntFlag{
				Name:  "iter-sampling",
				Usage: "Sampling iterations per chain",
			},
			&cli.IntFlag{
				Name:  "thin",
				Usage: "Thinning interval",
			},
			&cli.BoolFlag{
				Name:  "save-warmup",
				Usage: "Save warmup draws to the output file",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "RNG seed (default: derived from the current time)",
			},
			&cli.Float64Flag{
				Name:  "adapt-delta",
				Usage: "Adaptation target acceptance statistic",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "NUTS maximum tree depth",
			},
			&cli.IntFlag{
				Name:  "refresh",
				Usage: "Progress report interval in iterations",
			},
			&cli.StringFlag{
				Name:  "metric",
				Usage: "Path to a precomputed inverse metric file (JSON or R dump)",
			},
			&cli.BoolFlag{
				Name:  "fixed-param",
				Usage: "Use the fixed_param sampler (no parameters)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Abort the run after this duration",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress sampler console output",
			},
			ConfigFlag,
		}, ReadOnlyFlags()...),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	fileCfg, err := loadFileConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidOutput)
	}
	if fileCfg.CmdStan != "" {
		if err := setCmdStanDir(fileCfg.CmdStan); err != nil {
			return cli.Exit(err.Error(), exitInvalidOutput)
		}
	}

	sample := buildSampleConfig(c, fileCfg)

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timeout := c.Duration("timeout")
	if timeout == 0 {
		timeout = fileCfg.Sampler.Timeout.Duration
	}
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	exePath, modelName, err := resolveModel(ctx, c, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidOutput)
	}

	outputDir := c.String("output-dir")
	if outputDir == "" {
		outputDir = fileCfg.OutputDir
	}
	if outputDir == "" {
		outputDir, err = os.MkdirTemp("", "stanrun-")
		if err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	runID := c.String("run-id")
	if runID == "" {
		runID = time.Now().UTC().Format("20060102-150405")
	}
	runMeta := &types.RunMeta{
		RunID:  runID,
		Model:  modelName,
		Chains: sample.Chains,
	}

	collector := metrics.NewCollector(modelName, "sample", runID)
	runCfg := &runner.RunConfig{
		ExePath:   exePath,
		RunMeta:   runMeta,
		Sample:    sample,
		DataFile:  c.String("data"),
		OutputDir: outputDir,
		Collector: collector,
	}
	if !c.Bool("quiet") && !c.Bool("tui") {
		runCfg.Console = os.Stderr
		runCfg.OnProgress = func(ev runner.ProgressEvent) {
			fmt.Fprintf(os.Stderr, "chain %d: %s\n", ev.ChainID, ev.Status)
		}
	}

	orchestrator, err := runner.NewOrchestrator(runCfg)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidOutput)
	}

	var result *runner.RunResult
	if c.Bool("tui") {
		view := tui.NewRunView(runMeta, runCfg.Sample.IterTotal())
		runCfg.OnProgress = view.OnProgress
		errCh := make(chan error, 1)
		go func() {
			res, execErr := orchestrator.Execute(ctx)
			if execErr != nil {
				errCh <- execErr
				view.Done(&runner.RunResult{RunMeta: runMeta})
				return
			}
			result = res
			errCh <- nil
			view.Done(res)
		}()
		if err := view.Run(); err != nil {
			return err
		}
		if err := <-errCh; err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
	} else {
		result, err = orchestrator.Execute(ctx)
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
	}

	// Cache validated metadata next to each output file so later inspect
	// calls skip the rescan.
	for i, meta := range result.Metadata {
		if meta != nil {
			_ = stancsv.StoreCachedMetadata(result.OutputFiles[i], meta)
		}
	}

	if err := renderRunResult(c, r, result, collector.Snapshot()); err != nil {
		return err
	}

	return cli.Exit("", runExitCode(result))
}

// RunResponse is the rendered result of a run.
type RunResponse struct {
	RunID       string               `json:"run_id"`
	Model       string               `json:"model"`
	Chains      int                  `json:"chains"`
	Success     bool                 `json:"success"`
	Duration    string               `json:"duration"`
	Outcomes    []types.ChainOutcome `json:"outcomes"`
	OutputFiles []string             `json:"output_files"`
	Stats       metrics.Snapshot     `json:"stats"`
}

func newRunResponse(result *runner.RunResult, stats metrics.Snapshot) *RunResponse {
	return &RunResponse{
		RunID:       result.RunMeta.RunID,
		Model:       result.RunMeta.Model,
		Chains:      result.RunMeta.Chains,
		Success:     result.Success(),
		Duration:    result.Duration.Round(time.Millisecond).String(),
		Outcomes:    result.Outcomes,
		OutputFiles: result.OutputFiles,
		Stats:       stats,
	}
}

// loadFileConfig loads the optional stanrun.yaml defaults file.
func loadFileConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// buildSampleConfig layers CLI flags over file config defaults.
// Flags always win when explicitly set.
func buildSampleConfig(c *cli.Context, fileCfg *config.Config) types.SampleConfig {
	sample := fileCfg.SampleConfig()

	if c.IsSet("chains") {
		sample.Chains = c.Int("chains")
	}
	if c.IsSet("iter-warmup") {
		sample.IterWarmup = c.Int("iter-warmup")
	}
	if c.IsSet("iter-sampling") {
		sample.IterSampling = c.Int("iter-sampling")
	}
	if c.IsSet("thin") {
		sample.Thin = c.Int("thin")
	}
	if c.IsSet("save-warmup") {
		sample.SaveWarmup = c.Bool("save-warmup")
	}
	if c.IsSet("seed") {
		sample.Seed = c.Int64("seed")
	}
	if c.IsSet("adapt-delta") {
		sample.AdaptDelta = c.Float64("adapt-delta")
	}
	if c.IsSet("max-depth") {
		sample.MaxTreeDepth = c.Int("max-depth")
	}
	if c.IsSet("refresh") {
		sample.Refresh = c.Int("refresh")
	}
	if c.IsSet("metric") {
		sample.MetricFile = c.String("metric")
	}
	sample.FixedParam = c.Bool("fixed-param")

	return sample.Normalize()
}

// resolveModel returns the executable path and model name, compiling the
// Stan source first when needed.
func resolveModel(ctx context.Context, c *cli.Context, fileCfg *config.Config) (string, string, error) {
	stanFile := c.String("model")
	exeFile := c.String("exe")
	if stanFile == "" && exeFile == "" {
		return "", "", fmt.Errorf("either --model or --exe is required")
	}

	stancOpts := make(map[string]any, len(fileCfg.Compile.StancOptions))
	for k, v := range fileCfg.Compile.StancOptions {
		stancOpts[k] = v
	}

	cfg := model.Config{
		StanFile:     stanFile,
		ExeFile:      exeFile,
		Name:         c.String("name"),
		StancOptions: stancOpts,
		CppOptions:   fileCfg.Compile.CppOptions,
	}
	if !c.Bool("quiet") && !c.Bool("tui") {
		cfg.Console = os.Stderr
	}
	program, err := model.NewProgram(cfg)
	if err != nil {
		return "", "", err
	}

	if exeFile != "" {
		return exeFile, program.Name(), nil
	}

	force := c.Bool("force-compile") || fileCfg.Compile.Force
	if err := program.Compile(ctx, force); err != nil {
		return "", "", fmt.Errorf("model compilation failed: %w", err)
	}
	return program.TargetExe(), program.Name(), nil
}

// renderRunResult reports the finished run. After a TUI run the live view
// has already exited, so the run statistics view follows it; otherwise the
// structured response is rendered unless --quiet suppressed it.
func renderRunResult(c *cli.Context, r *render.Renderer, result *runner.RunResult, snap metrics.Snapshot) error {
	if c.Bool("tui") {
		return r.RenderTUI("stats_run", snap)
	}
	if c.Bool("quiet") {
		return nil
	}
	return r.Render(newRunResponse(result, snap))
}

// runExitCode maps chain outcomes to the process exit code.
// The most severe outcome across chains wins.
func runExitCode(result *runner.RunResult) int {
	code := exitSuccess
	for _, o := range result.Outcomes {
		c := outcomeToExitCode(o.Status)
		if c > code {
			code = c
		}
	}
	return code
}

func outcomeToExitCode(status types.OutcomeStatus) int {
	switch status {
	case types.OutcomeSuccess:
		return exitSuccess
	case types.OutcomeSamplerError:
		return exitSamplerError
	case types.OutcomeLaunchFailure:
		return exitLaunchFailure
	case types.OutcomeInterrupted, types.OutcomeInvalidOutput:
		return exitInvalidOutput
	default:
		return exitSamplerError
	}
}
