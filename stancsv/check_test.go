package stancsv

import (
	"strings"
	"testing"

	"github.com/stanforge/stanrun/types"
)

func TestCheckSamplerCSV(t *testing.T) {
	out := sampleOutput{
		numSamples: 10,
		numWarmup:  100,
		thin:       1,
		metric:     "diag_e",
		rows:       10,
	}
	path := writeOutput(t, out.render())

	meta, err := CheckSamplerCSV(path, types.SampleConfig{
		IterWarmup:   100,
		IterSampling: 10,
	})
	if err != nil {
		t.Fatalf("CheckSamplerCSV: %v", err)
	}
	if meta.Model != "bernoulli_model" {
		t.Errorf("model = %q, want bernoulli_model", meta.Model)
	}
	if meta.NumSamples != 10 {
		t.Errorf("num_samples = %d, want 10", meta.NumSamples)
	}
	if meta.DrawsSampling != 10 {
		t.Errorf("draws_sampling = %d, want 10", meta.DrawsSampling)
	}
}

func TestCheckSamplerCSV_Mismatches(t *testing.T) {
	out := sampleOutput{
		numSamples: 10,
		numWarmup:  100,
		thin:       1,
		metric:     "diag_e",
		rows:       10,
	}
	path := writeOutput(t, out.render())

	tests := []struct {
		name    string
		cfg     types.SampleConfig
		wantMsg string
	}{
		{
			name:    "thin mismatch",
			cfg:     types.SampleConfig{IterWarmup: 100, IterSampling: 20, Thin: 2},
			wantMsg: "config error, expected thin = 2",
		},
		{
			name:    "save_warmup mismatch",
			cfg:     types.SampleConfig{IterWarmup: 100, IterSampling: 10, SaveWarmup: true},
			wantMsg: "config error, expected save_warmup = 1, found 0",
		},
		{
			name:    "draw count mismatch",
			cfg:     types.SampleConfig{IterWarmup: 100},
			wantMsg: "expected 1000 draws, found 10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckSamplerCSV(path, tt.cfg)
			if err == nil {
				t.Fatal("CheckSamplerCSV succeeded, want error")
			}
			if !IsConfigError(err) {
				t.Fatalf("error %T is not a ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("error %q does not name %q", err, path)
			}
		})
	}
}

func TestCheckSamplerCSV_Thinned(t *testing.T) {
	out := sampleOutput{
		numSamples: 10,
		numWarmup:  100,
		thin:       2,
		metric:     "diag_e",
		rows:       5,
	}
	path := writeOutput(t, out.render())

	meta, err := CheckSamplerCSV(path, types.SampleConfig{
		IterWarmup:   100,
		IterSampling: 10,
		Thin:         2,
	})
	if err != nil {
		t.Fatalf("CheckSamplerCSV: %v", err)
	}
	if meta.DrawsSampling != 5 {
		t.Errorf("draws_sampling = %d, want 5", meta.DrawsSampling)
	}
}

func TestCheckSamplerCSV_DeclaredThinDoesNotShrinkExpectation(t *testing.T) {
	// A thinned file checked without thin in the config must fail the
	// draw count against the full iteration count, not quietly adopt
	// the file's declared thin.
	out := sampleOutput{
		numSamples: 490,
		numWarmup:  100,
		thin:       7,
		metric:     "diag_e",
		rows:       70,
	}
	path := writeOutput(t, out.render())

	_, err := CheckSamplerCSV(path, types.SampleConfig{
		IterWarmup:   100,
		IterSampling: 490,
	})
	if err == nil {
		t.Fatal("CheckSamplerCSV succeeded, want draw count error")
	}
	if !IsConfigError(err) {
		t.Fatalf("error %T is not a ConfigError", err)
	}
	if !strings.Contains(err.Error(), "expected 490 draws, found 70") {
		t.Errorf("error %q does not contain %q", err, "expected 490 draws, found 70")
	}
}

func TestCheckSamplerCSV_SavedWarmupDraws(t *testing.T) {
	out := sampleOutput{
		numSamples: 10,
		numWarmup:  100,
		saveWarmup: true,
		thin:       1,
		metric:     "diag_e",
		rows:       10,
		warmupRows: 100,
	}
	path := writeOutput(t, out.render())

	meta, err := CheckSamplerCSV(path, types.SampleConfig{
		IterWarmup:   100,
		IterSampling: 10,
		SaveWarmup:   true,
	})
	if err != nil {
		t.Fatalf("CheckSamplerCSV: %v", err)
	}
	if meta.DrawsWarmup != 100 {
		t.Errorf("draws_warmup = %d, want 100", meta.DrawsWarmup)
	}
}

func TestCheckSamplerCSV_ScanErrorPassesThrough(t *testing.T) {
	out := sampleOutput{numSamples: 10, numWarmup: 100, thin: 1, metric: "diag_e", rows: 10}
	content := strings.Replace(out.render(), "# Step size = 0.944907\n", "# Step size = nope\n", 1)
	path := writeOutput(t, content)

	_, err := CheckSamplerCSV(path, types.SampleConfig{IterWarmup: 100, IterSampling: 10})
	if err == nil {
		t.Fatal("CheckSamplerCSV succeeded, want error")
	}
	if IsConfigError(err) {
		t.Error("structural scan failure reported as ConfigError")
	}
}
