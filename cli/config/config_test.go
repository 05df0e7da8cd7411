package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stanrun.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	yaml := `cmdstan: /opt/cmdstan-2.36.0
output_dir: /var/lib/stanrun/out

sampler:
  chains: 4
  iter_warmup: 500
  iter_sampling: 2000
  thin: 2
  save_warmup: true
  seed: 12345
  adapt_delta: 0.95
  max_depth: 12
  refresh: 200
  timeout: 5m

compile:
  force: true
  stanc_options:
    warn-pedantic: "true"
  cpp_options:
    STAN_THREADS: "TRUE"
`
	path := writeConfig(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CmdStan != "/opt/cmdstan-2.36.0" {
		t.Errorf("cmdstan = %q", cfg.CmdStan)
	}
	if cfg.OutputDir != "/var/lib/stanrun/out" {
		t.Errorf("output_dir = %q", cfg.OutputDir)
	}
	if cfg.Sampler.Chains != 4 || cfg.Sampler.IterWarmup != 500 || cfg.Sampler.IterSampling != 2000 {
		t.Errorf("sampler = %+v", cfg.Sampler)
	}
	if !cfg.Sampler.SaveWarmup || cfg.Sampler.Seed != 12345 {
		t.Errorf("sampler = %+v", cfg.Sampler)
	}
	if cfg.Sampler.Timeout.Duration != 5*time.Minute {
		t.Errorf("timeout = %v, want 5m", cfg.Sampler.Timeout.Duration)
	}
	if !cfg.Compile.Force || cfg.Compile.CppOptions["STAN_THREADS"] != "TRUE" {
		t.Errorf("compile = %+v", cfg.Compile)
	}

	sc := cfg.SampleConfig()
	if sc.Chains != 4 || sc.Thin != 2 || sc.AdaptDelta != 0.95 || sc.MaxTreeDepth != 12 {
		t.Errorf("SampleConfig = %+v", sc)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "sampler:\n  chains: 2\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc := cfg.SampleConfig()
	if sc.Chains != 2 {
		t.Errorf("chains = %d, want 2", sc.Chains)
	}
	if sc.IterWarmup != 1000 || sc.IterSampling != 1000 || sc.Thin != 1 {
		t.Errorf("defaults not applied: %+v", sc)
	}
	if sc.AdaptDelta != 0.8 || sc.MaxTreeDepth != 10 {
		t.Errorf("adaptation defaults not applied: %+v", sc)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("STANRUN_OUT", "/data/out")
	path := writeConfig(t, "output_dir: ${STANRUN_OUT}\ncmdstan: ${STANRUN_CMDSTAN:-/opt/cmdstan}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "/data/out" {
		t.Errorf("output_dir = %q, want /data/out", cfg.OutputDir)
	}
	if cfg.CmdStan != "/opt/cmdstan" {
		t.Errorf("cmdstan = %q, want fallback /opt/cmdstan", cfg.CmdStan)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load = %v, want config file not found", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "sampler: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "sampler:\n  timeout: banana\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("Load = %v, want invalid duration", err)
	}
}
