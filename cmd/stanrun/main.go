// Package main provides the stanrun CLI entrypoint.
//
// All commands except `run` and `compile` are read-only.
//
// Usage:
//
//	stanrun <command> [options]
//
// Exit codes for `run`:
//   - 0: success (all chains completed and validated)
//   - 1: sampler error (a chain exited nonzero)
//   - 2: launch failure (the sampler binary could not be started)
//   - 3: invalid output or interrupted stream
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/stanforge/stanrun/cli/cmd"
	"github.com/stanforge/stanrun/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "stanrun",
		Usage:          "CmdStan model runner CLI",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.CompileCommand(),
			cmd.InspectCommand(),
			cmd.ConvertCommand(),
			cmd.CmdStanCommand(),
			cmd.VersionCommand("", commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
// This ensures that `run` command exit codes are propagated to callers.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// Only print if there's a real message (not just "exit status N")
		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
