package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/stanforge/stanrun/cli/render"
	"github.com/stanforge/stanrun/toolchain"
)

// CmdStanResponse reports the resolved CmdStan installation.
type CmdStanResponse struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// CmdStanCommand returns the cmdstan command, which reports the resolved
// CmdStan installation directory and its version.
func CmdStanCommand() *cli.Command {
	return &cli.Command{
		Name:   "cmdstan",
		Usage:  "Show the resolved CmdStan installation",
		Flags:  ReadOnlyFlags(),
		Action: cmdstanAction,
	}
}

func cmdstanAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for cmdstan command", 1)
	}

	dir, err := toolchain.Path()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	version := "unknown"
	if major, minor, ok := toolchain.Version(dir); ok {
		version = fmt.Sprintf("%d.%d", major, minor)
	}

	return r.Render(CmdStanResponse{
		Path:    dir,
		Version: version,
	})
}
