package stancsv

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// sampleOutput builds a sampler output file in the canonical layout: config
// comment block, column header, optional warmup rows, adaptation block,
// sampling rows, timing trailer.
type sampleOutput struct {
	numSamples int
	numWarmup  int
	saveWarmup bool
	thin       int
	metric     string
	adaptation string
	rows       int
	warmupRows int
	extraCells int
}

func (o sampleOutput) render() string {
	var b strings.Builder
	b.WriteString("# stan_version_major = 2\n")
	b.WriteString("# stan_version_minor = 36\n")
	b.WriteString("# model = bernoulli_model\n")
	b.WriteString("# method = sample (Default)\n")
	b.WriteString("#   sample\n")
	writeInt := func(key string, v int) {
		b.WriteString("#     " + key + " = " + strconv.Itoa(v) + "\n")
	}
	writeInt("num_samples", o.numSamples)
	writeInt("num_warmup", o.numWarmup)
	if o.saveWarmup {
		writeInt("save_warmup", 1)
	} else {
		b.WriteString("#     save_warmup = 0 (Default)\n")
	}
	writeInt("thin", o.thin)
	b.WriteString("#     adapt\n")
	b.WriteString("#       delta = 0.8 (Default)\n")
	b.WriteString("#     algorithm = hmc (Default)\n")
	b.WriteString("#       engine = nuts (Default)\n")
	b.WriteString("#         max_depth = 10 (Default)\n")
	b.WriteString("#       metric = " + o.metric + "\n")
	b.WriteString("# seed = 12345\n")
	b.WriteString("lp__,accept_stat__,stepsize__,treedepth__,n_leapfrog__,divergent__,energy__,theta\n")

	row := "-7.3,0.98,0.94,2,3,0,7.5,0.27"
	for i := 0; i < o.extraCells; i++ {
		row += ",0"
	}
	for i := 0; i < o.warmupRows; i++ {
		b.WriteString(row + "\n")
	}
	if o.adaptation == "" {
		b.WriteString("# Adaptation terminated\n")
		b.WriteString("# Step size = 0.944907\n")
		switch o.metric {
		case "diag_e":
			b.WriteString("# Diagonal elements of inverse mass matrix:\n")
			b.WriteString("# 0.52\n")
		case "dense_e":
			b.WriteString("# Elements of inverse mass matrix:\n")
			b.WriteString("# 0.52, 0.01\n")
			b.WriteString("# 0.01, 0.48\n")
		}
	} else {
		b.WriteString(o.adaptation)
	}
	for i := 0; i < o.rows; i++ {
		b.WriteString(row + "\n")
	}
	b.WriteString("#\n")
	b.WriteString("#  Elapsed Time: 0.005 seconds (Warm-up)\n")
	b.WriteString("#                0.016 seconds (Sampling)\n")
	return b.String()
}

func writeOutput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "output.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanSamplerCSV(t *testing.T) {
	out := sampleOutput{
		numSamples: 10,
		numWarmup:  100,
		thin:       1,
		metric:     "diag_e",
		rows:       10,
	}
	path := writeOutput(t, out.render())

	meta, err := ScanSamplerCSV(path, false)
	if err != nil {
		t.Fatalf("ScanSamplerCSV: %v", err)
	}
	if meta.Model != "bernoulli_model" {
		t.Errorf("model = %q, want bernoulli_model", meta.Model)
	}
	if meta.Method != "sample" {
		t.Errorf("method = %q, want sample", meta.Method)
	}
	if meta.NumSamples != 10 || meta.NumWarmup != 100 {
		t.Errorf("num_samples, num_warmup = %d, %d, want 10, 100", meta.NumSamples, meta.NumWarmup)
	}
	if meta.DrawsSampling != 10 || meta.DrawsWarmup != 0 {
		t.Errorf("draws = %d sampling, %d warmup, want 10, 0", meta.DrawsSampling, meta.DrawsWarmup)
	}
	if len(meta.ColumnNames) != 8 {
		t.Errorf("len(column_names) = %d, want 8", len(meta.ColumnNames))
	}
	if meta.Seed != 12345 {
		t.Errorf("seed = %d, want 12345", meta.Seed)
	}
	if meta.StepSize != 0.944907 {
		t.Errorf("step_size = %v, want 0.944907", meta.StepSize)
	}
	if len(meta.MetricDims) != 1 || meta.MetricDims[0] != 1 {
		t.Errorf("metric_dims = %v, want [1]", meta.MetricDims)
	}
	if got := meta.MethodVars["lp__"]; len(got) != 1 || got[0] != 0 {
		t.Errorf("method var lp__ = %v, want [0]", got)
	}
	if got := meta.StanVarCols["theta"]; len(got) != 1 || got[0] != 7 {
		t.Errorf("stan var theta cols = %v, want [7]", got)
	}
	if !meta.HasConfigKey("seed") || meta.HasConfigKey("no_such_key") {
		t.Error("HasConfigKey misreports declared keys")
	}
}

func TestScanSamplerCSV_SaveWarmup(t *testing.T) {
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

	meta, err := ScanSamplerCSV(path, false)
	if err != nil {
		t.Fatalf("ScanSamplerCSV: %v", err)
	}
	if !meta.SaveWarmup {
		t.Error("SaveWarmup = false, want true")
	}
	if meta.DrawsWarmup != 100 || meta.DrawsSampling != 10 {
		t.Errorf("draws = %d warmup, %d sampling, want 100, 10", meta.DrawsWarmup, meta.DrawsSampling)
	}
}

func TestScanSamplerCSV_DenseMetric(t *testing.T) {
	out := sampleOutput{
		numSamples: 5,
		numWarmup:  100,
		thin:       1,
		metric:     "dense_e",
		rows:       5,
	}
	path := writeOutput(t, out.render())

	meta, err := ScanSamplerCSV(path, false)
	if err != nil {
		t.Fatalf("ScanSamplerCSV: %v", err)
	}
	if len(meta.MetricDims) != 2 || meta.MetricDims[0] != 2 || meta.MetricDims[1] != 2 {
		t.Errorf("metric_dims = %v, want [2 2]", meta.MetricDims)
	}
}

func TestScanSamplerCSV_Errors(t *testing.T) {
	base := sampleOutput{numSamples: 10, numWarmup: 100, thin: 1, metric: "diag_e", rows: 10}

	tests := []struct {
		name    string
		mutate  func(s string) string
		wantMsg string
	}{
		{
			name: "bad row arity",
			mutate: func(s string) string {
				return strings.Replace(s, "-7.3,0.98,0.94,2,3,0,7.5,0.27\n", "-7.3,0.98,0.94,2,3,0,7.5,0.27,99\n", 1)
			},
			wantMsg: "bad draw, expected 8 items, found 9",
		},
		{
			name: "missing adaptation",
			mutate: func(s string) string {
				return strings.Replace(s, "# Adaptation terminated\n", "", 1)
			},
			wantMsg: "expecting metric",
		},
		{
			name: "bad step size",
			mutate: func(s string) string {
				return strings.Replace(s, "# Step size = 0.944907\n", "# Step size = bad\n", 1)
			},
			wantMsg: "invalid step size",
		},
		{
			name: "wrong metric marker",
			mutate: func(s string) string {
				return strings.Replace(s,
					"# Diagonal elements of inverse mass matrix:\n",
					"# Elements of inverse mass matrix:\n", 1)
			},
			wantMsg: "invalid or missing mass matrix specification",
		},
		{
			name: "missing metric values",
			mutate: func(s string) string {
				return strings.Replace(s, "# 0.52\n", "-7.3,0.98,0.94,2,3,0,7.5,0.27\n", 1)
			},
			wantMsg: "invalid or missing mass matrix specification",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeOutput(t, tt.mutate(base.render()))
			_, err := ScanSamplerCSV(path, false)
			if err == nil {
				t.Fatal("ScanSamplerCSV succeeded, want error")
			}
			var se *ScanError
			if !errors.As(err, &se) {
				t.Fatalf("error %T, want *ScanError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestScanSamplerCSV_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no_such_file.csv")
	_, err := ScanSamplerCSV(path, false)
	if err == nil {
		t.Fatal("ScanSamplerCSV succeeded, want error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name %q", err, path)
	}
}

func TestScanSamplerCSV_FixedParam(t *testing.T) {
	var b strings.Builder
	b.WriteString("# model = datagen_model\n")
	b.WriteString("# method = sample (Default)\n")
	b.WriteString("# num_samples = 100\n")
	b.WriteString("# num_warmup = 0\n")
	b.WriteString("# save_warmup = 0 (Default)\n")
	b.WriteString("# thin = 1 (Default)\n")
	b.WriteString("lp__,accept_stat__,y_sim\n")
	for i := 0; i < 100; i++ {
		b.WriteString("0,0,1\n")
	}
	path := writeOutput(t, b.String())

	meta, err := ScanSamplerCSV(path, true)
	if err != nil {
		t.Fatalf("ScanSamplerCSV: %v", err)
	}
	if meta.DrawsSampling != 100 {
		t.Errorf("draws_sampling = %d, want 100", meta.DrawsSampling)
	}
	if meta.StepSize != 0 {
		t.Errorf("step_size = %v, want 0", meta.StepSize)
	}
}
