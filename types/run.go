// Package types defines core domain types for the stanrun toolkit.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
)

// RunMeta contains run identity metadata. Every log entry and result
// produced during a run carries these fields.
type RunMeta struct {
	// RunID is the canonical run identifier. Must be non-empty.
	RunID string
	// Model is the name of the Stan model being run.
	Model string
	// Chains is the number of sampler chains in this run.
	Chains int
}

// Validate checks run identity rules.
func (r *RunMeta) Validate() error {
	if r.RunID == "" {
		return errors.New("run_id must be non-empty")
	}
	if r.Model == "" {
		return errors.New("model name must be non-empty")
	}
	if r.Chains < 1 {
		return fmt.Errorf("chains must be >= 1, got %d", r.Chains)
	}
	return nil
}

// OutcomeStatus classifies how a single chain ended.
type OutcomeStatus string

const (
	// OutcomeSuccess indicates the chain sampled to completion and its
	// output file passed validation.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeSamplerError indicates the sampler exited with an error.
	OutcomeSamplerError OutcomeStatus = "sampler_error"
	// OutcomeLaunchFailure indicates the sampler binary could not be started.
	OutcomeLaunchFailure OutcomeStatus = "launch_failure"
	// OutcomeInterrupted indicates the output stream ended before the
	// expected iteration total was reached.
	OutcomeInterrupted OutcomeStatus = "interrupted"
	// OutcomeInvalidOutput indicates the sampler exited cleanly but its
	// output file failed validation.
	OutcomeInvalidOutput OutcomeStatus = "invalid_output"
)

// ChainOutcome is the final outcome of one sampler chain.
type ChainOutcome struct {
	// ChainID is the 1-based chain identifier.
	ChainID int
	// Status is the outcome classification.
	Status OutcomeStatus
	// Message is a human-readable description.
	Message string
	// ExitCode is the sampler process exit code (-1 if never started).
	ExitCode int
}
