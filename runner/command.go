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

// RunCommand runs a helper command in dir, streaming its merged
// stdout/stderr to console as the command produces it. A nil console
// discards the stream. Nonzero exit reports an error naming the command
// and its exit code.
func RunCommand(ctx context.Context, dir string, console io.Writer, name string, args ...string) error {
	if console == nil {
		console = io.Discard
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	_ = pw.Close()

	_, copyErr := io.Copy(console, pr)
	iox.DiscardClose(pr)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s terminated with exit code %d", name, exitErr.ExitCode())
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return copyErr
}
