package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/stanforge/stanrun/iox"
)

// ChainConfig configures one sampler chain process.
type ChainConfig struct {
	// ExePath is the path to the compiled model executable.
	ExePath string
	// Args is the assembled sampler argument list.
	Args []string
	// Env is extra environment entries appended to os.Environ. Optional.
	Env []string
}

// ChainResult represents the result of a finished chain process.
type ChainResult struct {
	// ExitCode is the process exit code.
	ExitCode int
}

// Chain abstracts the chain process lifecycle for testing.
type Chain interface {
	Start(ctx context.Context) error
	Output() io.Reader
	Wait() (*ChainResult, error)
	Kill() error
}

// ChainFactory creates a Chain. Used for test injection.
type ChainFactory func(config *ChainConfig) Chain

// ChainProcess manages one sampler chain's process lifecycle. The sampler
// prints progress to stdout and diagnostics to stderr; both are merged into
// a single stream so the progress monitor sees everything in order.
type ChainProcess struct {
	config *ChainConfig
	cmd    *exec.Cmd
	out    *os.File
}

// NewChainProcess creates a chain process manager.
func NewChainProcess(config *ChainConfig) *ChainProcess {
	return &ChainProcess{config: config}
}

// Start launches the sampler process.
func (p *ChainProcess) Start(ctx context.Context) error {
	p.cmd = exec.CommandContext(ctx, p.config.ExePath, p.config.Args...)
	if len(p.config.Env) > 0 {
		p.cmd.Env = append(os.Environ(), p.config.Env...)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create output pipe: %w", err)
	}
	p.cmd.Stdout = pw
	p.cmd.Stderr = pw
	p.out = pr

	if err := p.cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return fmt.Errorf("failed to start sampler: %w", err)
	}

	// The child holds its own copy of the write end. Closing ours lets
	// reads on the read end hit EOF when the child exits.
	_ = pw.Close()
	return nil
}

// Output returns the merged stdout/stderr stream. Valid after Start.
func (p *ChainProcess) Output() io.Reader {
	return p.out
}

// Wait reaps the process and returns its exit code. The output stream must
// be fully drained before calling Wait.
func (p *ChainProcess) Wait() (*ChainResult, error) {
	if p.cmd == nil {
		return nil, errors.New("chain not started")
	}
	defer iox.DiscardClose(p.out)

	err := p.cmd.Wait()
	result := &ChainResult{}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("sampler wait failed: %w", err)
		}
	}
	return result, nil
}

// Kill terminates the chain process.
func (p *ChainProcess) Kill() error {
	if p.cmd != nil && p.cmd.Process != nil {
		return p.cmd.Process.Kill()
	}
	return nil
}
