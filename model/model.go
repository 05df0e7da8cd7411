// Package model represents a Stan program: its source file, its compiled
// executable, and the compiler options used to build one from the other.
package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stanforge/stanrun/runner"
	"github.com/stanforge/stanrun/toolchain"
)

// validStancOptions is the set of recognized stanc compiler flags.
var validStancOptions = map[string]bool{
	"O":                  true,
	"allow_undefined":    true,
	"use-opencl":         true,
	"warn-uninitialized": true,
	"warn-pedantic":      true,
	"include_paths":      true,
	"name":               true,
}

// Config configures a Program.
type Config struct {
	// StanFile is the path to the .stan source. Required unless ExeFile
	// alone is given.
	StanFile string
	// ExeFile is the path to a previously compiled executable. When set
	// without StanFile, the program can sample but not recompile.
	ExeFile string
	// Name overrides the model name derived from the source file stem.
	Name string
	// StancOptions are stanc compiler flags, validated on construction.
	StancOptions map[string]any
	// CppOptions are make variables for the C++ build (STAN_THREADS etc).
	CppOptions map[string]string
	// Console receives the build output as make produces it. Optional.
	Console io.Writer
}

// Program is a Stan model with a resolved name and compile configuration.
type Program struct {
	name         string
	stanFile     string
	exeFile      string
	stancOptions map[string]any
	cppOptions   map[string]string
	console      io.Writer
}

// NewProgram validates cfg and constructs a Program.
func NewProgram(cfg Config) (*Program, error) {
	if cfg.StanFile == "" && cfg.ExeFile == "" {
		return nil, errors.New("either a stan file or an executable must be given")
	}

	name := cfg.Name
	if name != "" && strings.TrimSpace(name) == "" {
		return nil, errors.New("model name must be non-blank")
	}
	if name == "" {
		src := cfg.StanFile
		if src == "" {
			src = cfg.ExeFile
		}
		name = strings.TrimSuffix(filepath.Base(src), ".stan")
	}

	if cfg.StanFile != "" {
		if _, err := os.Stat(cfg.StanFile); err != nil {
			return nil, fmt.Errorf("no such stan file %s", cfg.StanFile)
		}
	}

	stancOpts := make(map[string]any, len(cfg.StancOptions))
	cppOpts := make(map[string]string, len(cfg.CppOptions))
	for k, v := range cfg.CppOptions {
		cppOpts[k] = v
	}
	for k, v := range cfg.StancOptions {
		if !validStancOptions[k] {
			return nil, fmt.Errorf("unknown stanc option %q", k)
		}
		if k == "include_paths" {
			if err := checkIncludePaths(v); err != nil {
				return nil, err
			}
		}
		stancOpts[k] = v
		// OpenCL codegen needs the matching C++ build flag.
		if k == "use-opencl" {
			cppOpts["STAN_OPENCL"] = "TRUE"
		}
	}

	return &Program{
		name:         name,
		stanFile:     cfg.StanFile,
		exeFile:      cfg.ExeFile,
		stancOptions: stancOpts,
		cppOptions:   cppOpts,
		console:      cfg.Console,
	}, nil
}

func checkIncludePaths(v any) error {
	var paths []string
	switch t := v.(type) {
	case string:
		paths = []string{t}
	case []string:
		paths = t
	default:
		return fmt.Errorf("include_paths must be a path or list of paths, got %T", v)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("invalid include path %s", p)
		}
	}
	return nil
}

// Name returns the model name.
func (p *Program) Name() string { return p.name }

// StanFile returns the source path, empty for exe-only programs.
func (p *Program) StanFile() string { return p.stanFile }

// ExeFile returns the executable path, empty until compiled.
func (p *Program) ExeFile() string { return p.exeFile }

// StancOptions returns the validated stanc flags.
func (p *Program) StancOptions() map[string]any { return p.stancOptions }

// CppOptions returns the C++ build variables, including any derived from
// stanc flags.
func (p *Program) CppOptions() map[string]string { return p.cppOptions }

// Code returns the model source text.
func (p *Program) Code() (string, error) {
	if p.stanFile == "" {
		return "", errors.New("program has no stan file")
	}
	raw, err := os.ReadFile(p.stanFile)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p.stanFile, err)
	}
	return string(raw), nil
}

// TargetExe returns the executable path the build produces: the source path
// with its .stan extension removed.
func (p *Program) TargetExe() string {
	if p.exeFile != "" {
		return p.exeFile
	}
	return strings.TrimSuffix(p.stanFile, ".stan")
}

// Compile builds the model executable by running make in the CmdStan
// directory. When force is false and the executable is newer than the
// source, the build is skipped. On success the program's ExeFile is set.
func (p *Program) Compile(ctx context.Context, force bool) error {
	if p.stanFile == "" {
		return errors.New("program has no stan file, cannot compile")
	}
	cmdstan, err := toolchain.Path()
	if err != nil {
		return err
	}

	target := p.TargetExe()
	if !force && upToDate(p.stanFile, target) {
		p.exeFile = target
		return nil
	}

	args := make([]string, 0, len(p.cppOptions)+2)
	for k, v := range p.cppOptions {
		args = append(args, k+"="+v)
	}
	if flags := p.stancFlags(); flags != "" {
		args = append(args, "STANCFLAGS="+flags)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	args = append(args, abs)

	if err := runner.RunCommand(ctx, cmdstan, p.console, "make", args...); err != nil {
		return fmt.Errorf("compiling %s failed: %w", p.stanFile, err)
	}
	p.exeFile = target
	return nil
}

// stancFlags renders the stanc options as a STANCFLAGS value.
func (p *Program) stancFlags() string {
	var flags []string
	for k, v := range p.stancOptions {
		switch t := v.(type) {
		case bool:
			if t {
				flags = append(flags, "--"+k)
			}
		case string:
			flags = append(flags, fmt.Sprintf("--%s=%s", k, t))
		case []string:
			flags = append(flags, fmt.Sprintf("--%s=%s", k, strings.Join(t, ",")))
		default:
			flags = append(flags, fmt.Sprintf("--%s=%v", k, t))
		}
	}
	return strings.Join(flags, " ")
}

func upToDate(src, target string) bool {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	exeInfo, err := os.Stat(target)
	if err != nil {
		return false
	}
	return exeInfo.ModTime().After(srcInfo.ModTime())
}
