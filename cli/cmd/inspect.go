package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/stanforge/stanrun/cli/render"
	"github.com/stanforge/stanrun/stancsv"
)

// InspectCommand returns the inspect command.
// Inspect parses a sampler output file and reports its metadata: declared
// configuration, adaptation results, variable layout, and draw counts.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect a sampler output CSV file",
		ArgsUsage: "<output.csv>",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "fixed-param",
				Usage: "Treat the file as fixed_param sampler output",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Ignore and refresh the metadata cache sidecar",
			},
		}, TUIReadOnlyFlags()...),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("output file required", 1)
	}
	path := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	var meta *stancsv.Metadata
	if c.Bool("no-cache") {
		_ = stancsv.InvalidateCachedMetadata(path)
	} else {
		meta = stancsv.LoadCachedMetadata(path)
	}
	if meta == nil {
		meta, err = stancsv.ScanSamplerCSV(path, c.Bool("fixed-param"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		_ = stancsv.StoreCachedMetadata(path, meta)
	}

	// Handle TUI mode
	if c.Bool("tui") {
		return r.RenderTUI("inspect_output", meta)
	}

	// Standard render
	return r.Render(meta)
}
