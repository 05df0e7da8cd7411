package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/stanforge/stanrun/cli/render"
	"github.com/stanforge/stanrun/model"
	"github.com/stanforge/stanrun/toolchain"
)

// CompileResponse is the rendered result of a compile.
type CompileResponse struct {
	Model string `json:"model"`
	Exe   string `json:"exe"`
}

// CompileCommand returns the compile command.
func CompileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile a Stan model to an executable",
		ArgsUsage: "<model.stan>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Model name override",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Recompile even if the executable is newer than the source",
			},
			&cli.StringSliceFlag{
				Name:  "stanc-opt",
				Usage: "stanc compiler option as key or key=value (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "cpp-opt",
				Usage: "C++ build variable as key=value (repeatable)",
			},
			ConfigFlag,
		}, ReadOnlyFlags()...),
		Action: compileAction,
	}
}

func compileAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("model file required", 1)
	}
	stanFile := c.Args().First()

	fileCfg, err := loadFileConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if fileCfg.CmdStan != "" {
		if err := setCmdStanDir(fileCfg.CmdStan); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for compile command", 1)
	}

	stancOpts := make(map[string]any, len(fileCfg.Compile.StancOptions))
	for k, v := range fileCfg.Compile.StancOptions {
		stancOpts[k] = v
	}
	for _, opt := range c.StringSlice("stanc-opt") {
		k, v := splitOpt(opt)
		stancOpts[k] = v
	}

	cppOpts := make(map[string]string, len(fileCfg.Compile.CppOptions))
	for k, v := range fileCfg.Compile.CppOptions {
		cppOpts[k] = v
	}
	for _, opt := range c.StringSlice("cpp-opt") {
		k, v := splitOpt(opt)
		cppOpts[k] = v
	}

	program, err := model.NewProgram(model.Config{
		StanFile:     stanFile,
		Name:         c.String("name"),
		StancOptions: stancOpts,
		CppOptions:   cppOpts,
		Console:      os.Stderr,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	force := c.Bool("force") || fileCfg.Compile.Force
	if err := program.Compile(c.Context, force); err != nil {
		return cli.Exit(fmt.Sprintf("compilation failed: %v", err), 1)
	}

	return r.Render(CompileResponse{
		Model: program.Name(),
		Exe:   program.TargetExe(),
	})
}

// splitOpt splits a key=value option; a bare key maps to an empty value.
func splitOpt(opt string) (string, string) {
	k, v, _ := strings.Cut(opt, "=")
	return k, v
}

// setCmdStanDir pins the CmdStan directory after validating it.
func setCmdStanDir(dir string) error {
	return toolchain.SetPath(dir)
}
