// Package runner launches and supervises sampler chain processes, feeds
// their output streams to progress monitors, and validates the resulting
// output files.
package runner

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/stanforge/stanrun/log"
	"github.com/stanforge/stanrun/metric"
	"github.com/stanforge/stanrun/metrics"
	"github.com/stanforge/stanrun/progress"
	"github.com/stanforge/stanrun/stancsv"
	"github.com/stanforge/stanrun/stanjson"
	"github.com/stanforge/stanrun/types"
)

// ProgressEvent is delivered to the OnProgress callback after each
// recognized iteration line.
type ProgressEvent struct {
	ChainID int
	Iter    int
	Total   int
	Phase   string
	Status  string
}

// RunConfig configures a single sampling run.
type RunConfig struct {
	// ExePath is the path to the compiled model executable.
	ExePath string
	// RunMeta is the run identity metadata.
	RunMeta *types.RunMeta
	// Sample is the sampler configuration, normalized by Execute.
	Sample types.SampleConfig
	// Data is the input data mapping. Serialized to a JSON file in
	// OutputDir when non-nil; ignored when DataFile is set.
	Data map[string]any
	// DataFile is a prepared input data file. Takes precedence over Data.
	DataFile string
	// OutputDir receives the per-chain output files.
	OutputDir string
	// ChainFactory overrides chain process creation (for testing).
	// If nil, uses NewChainProcess.
	ChainFactory ChainFactory
	// Console receives non-progress sampler output. Optional.
	Console io.Writer
	// OnProgress is called synchronously from each chain's monitor
	// goroutine on every iteration event. Must be safe for concurrent
	// calls when Chains > 1. Optional.
	OnProgress func(ProgressEvent)
	// Collector is the metrics collector for this run.
	// If nil, no metrics are recorded (all Collector methods are nil-safe).
	Collector *metrics.Collector
}

// RunResult represents the result of a run.
type RunResult struct {
	// RunMeta is the run identity.
	RunMeta *types.RunMeta
	// Outcomes holds one entry per chain, ordered by chain ID.
	Outcomes []types.ChainOutcome
	// Metadata holds the validated output metadata for successful chains,
	// nil for failed ones. Indexed like Outcomes.
	Metadata []*stancsv.Metadata
	// OutputFiles are the per-chain output file paths, ordered by chain ID.
	OutputFiles []string
	// Duration is the total run duration.
	Duration time.Duration
}

// Success reports whether every chain completed and validated.
func (r *RunResult) Success() bool {
	for _, o := range r.Outcomes {
		if o.Status != types.OutcomeSuccess {
			return false
		}
	}
	return len(r.Outcomes) > 0
}

// Orchestrator runs all chains of a single sampling run.
type Orchestrator struct {
	config    *RunConfig
	logger    *log.Logger
	startTime time.Time
}

// NewOrchestrator creates a run orchestrator.
// Returns an error if run metadata or sampler configuration is invalid.
func NewOrchestrator(config *RunConfig) (*Orchestrator, error) {
	if err := config.RunMeta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run metadata: %w", err)
	}
	config.Sample = config.Sample.Normalize()
	if err := config.Sample.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sampler config: %w", err)
	}

	return &Orchestrator{
		config: config,
		logger: log.NewLogger(config.RunMeta),
	}, nil
}

// Execute runs all chains end-to-end and returns the aggregate result.
//
// Execution flow, per chain and concurrently across chains:
//  1. Start the sampler process
//  2. Drain its output stream through a progress monitor
//  3. Wait for process exit
//  4. Validate the output file against the declared configuration
//  5. Classify the outcome
func (o *Orchestrator) Execute(ctx context.Context) (*RunResult, error) {
	o.startTime = time.Now()
	cfg := o.config.Sample

	if cfg.MetricFile != "" {
		dims, err := metric.Read(cfg.MetricFile)
		if err != nil {
			return nil, err
		}
		o.logger.Debug("metric file validated", map[string]any{
			"file": cfg.MetricFile,
			"dims": dims,
		})
	}

	dataFile := o.config.DataFile
	if dataFile == "" && o.config.Data != nil {
		dataFile = filepath.Join(o.config.OutputDir, o.config.RunMeta.Model+"-data.json")
		if err := stanjson.Write(dataFile, o.config.Data); err != nil {
			return nil, fmt.Errorf("serializing input data: %w", err)
		}
	}

	o.logger.Info("starting run", map[string]any{
		"exe":           o.config.ExePath,
		"data":          dataFile,
		"iter_warmup":   cfg.IterWarmup,
		"iter_sampling": cfg.IterSampling,
		"fixed_param":   cfg.FixedParam,
	})

	result := &RunResult{
		RunMeta:     o.config.RunMeta,
		Outcomes:    make([]types.ChainOutcome, cfg.Chains),
		Metadata:    make([]*stancsv.Metadata, cfg.Chains),
		OutputFiles: make([]string, cfg.Chains),
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.Chains; i++ {
		chainID := i + 1
		outputFile := filepath.Join(o.config.OutputDir,
			fmt.Sprintf("%s-%s-%d.csv", o.config.RunMeta.Model, o.config.RunMeta.RunID, chainID))
		result.OutputFiles[i] = outputFile

		wg.Add(1)
		go func(slot, chainID int, outputFile string) {
			defer wg.Done()
			outcome, meta := o.runChain(ctx, chainID, dataFile, outputFile)
			result.Outcomes[slot] = outcome
			result.Metadata[slot] = meta
		}(i, chainID, outputFile)
	}
	wg.Wait()

	result.Duration = time.Since(o.startTime)
	o.logger.Info("run finished", map[string]any{
		"success":  result.Success(),
		"duration": result.Duration.String(),
	})
	return result, nil
}

// runChain executes one chain to completion and classifies its outcome.
func (o *Orchestrator) runChain(ctx context.Context, chainID int, dataFile, outputFile string) (types.ChainOutcome, *stancsv.Metadata) {
	cfg := o.config.Sample
	o.config.Collector.IncChainStarted()

	chainCfg := &ChainConfig{
		ExePath: o.config.ExePath,
		Args:    BuildArgs(chainID, cfg, dataFile, outputFile),
	}
	var chain Chain
	if o.config.ChainFactory != nil {
		chain = o.config.ChainFactory(chainCfg)
	} else {
		chain = NewChainProcess(chainCfg)
	}

	if err := chain.Start(ctx); err != nil {
		o.config.Collector.IncLaunchFailure()
		o.config.Collector.IncChainCrashed()
		o.logger.Error("failed to start chain", map[string]any{
			"chain": chainID,
			"error": err.Error(),
		})
		return types.ChainOutcome{
			ChainID:  chainID,
			Status:   types.OutcomeLaunchFailure,
			Message:  fmt.Sprintf("failed to start sampler: %v", err),
			ExitCode: -1,
		}, nil
	}
	o.config.Collector.IncLaunchSuccess()

	iterWarmup, iterTotal := cfg.IterWarmup, cfg.IterTotal()
	if cfg.FixedParam {
		iterWarmup, iterTotal = 0, cfg.IterSampling
	}

	// Drain the full stream before Wait so the child never blocks on a
	// full pipe and the pipe is not torn down under the monitor.
	monitor := progress.NewMonitor(chain.Output(), chainID, iterWarmup, iterTotal, o.config.Console)
	for {
		iter, ok := monitor.Advance()
		if !ok {
			break
		}
		if o.config.OnProgress != nil {
			o.config.OnProgress(ProgressEvent{
				ChainID: chainID,
				Iter:    iter,
				Total:   iterTotal,
				Phase:   monitor.Phase(),
				Status:  monitor.Status(),
			})
		}
	}

	chainResult, err := chain.Wait()
	if err != nil {
		o.config.Collector.IncChainCrashed()
		o.logger.Error("chain wait failed", map[string]any{
			"chain": chainID,
			"error": err.Error(),
		})
		return types.ChainOutcome{
			ChainID:  chainID,
			Status:   types.OutcomeLaunchFailure,
			Message:  fmt.Sprintf("sampler wait failed: %v", err),
			ExitCode: -1,
		}, nil
	}

	outcome, meta := o.classifyChain(chainID, chainResult.ExitCode, monitor, outputFile)
	o.logger.Info("chain finished", map[string]any{
		"chain":     chainID,
		"status":    string(outcome.Status),
		"exit_code": outcome.ExitCode,
	})
	return outcome, meta
}

// classifyChain maps exit code, stream completeness, and output validation
// to a chain outcome. The exit code is authoritative: a nonzero exit is a
// sampler error regardless of how much output was produced.
func (o *Orchestrator) classifyChain(chainID, exitCode int, monitor *progress.Monitor, outputFile string) (types.ChainOutcome, *stancsv.Metadata) {
	if exitCode != 0 {
		o.config.Collector.IncChainFailed()
		return types.ChainOutcome{
			ChainID:  chainID,
			Status:   types.OutcomeSamplerError,
			Message:  fmt.Sprintf("sampler exited with code %d", exitCode),
			ExitCode: exitCode,
		}, nil
	}

	if !monitor.Complete() {
		o.config.Collector.IncChainFailed()
		return types.ChainOutcome{
			ChainID: chainID,
			Status:  types.OutcomeInterrupted,
			Message: fmt.Sprintf("output stream ended at iteration %d", monitor.Iter()),
		}, nil
	}

	meta, err := stancsv.CheckSamplerCSV(outputFile, o.config.Sample)
	if err != nil {
		o.config.Collector.IncOutputScanError()
		o.config.Collector.IncChainFailed()
		return types.ChainOutcome{
			ChainID: chainID,
			Status:  types.OutcomeInvalidOutput,
			Message: err.Error(),
		}, nil
	}

	o.config.Collector.IncChainCompleted()
	o.config.Collector.AbsorbDrawStats(int64(meta.DrawsSampling), int64(meta.DrawsWarmup), 0)
	return types.ChainOutcome{
		ChainID: chainID,
		Status:  types.OutcomeSuccess,
		Message: "chain completed",
	}, meta
}
