package rdump

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseValue_Structure(t *testing.T) {
	v, err := ParseValue("structure(c(1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16),.Dim=c(2,8))")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	if got := v.Dims(); len(got) != 2 || got[0] != 2 || got[1] != 8 {
		t.Fatalf("Dims() = %v, want [2 8]", got)
	}
	if got := v.At(1, 0); got != 2 {
		t.Errorf("At(1,0) = %g, want 2", got)
	}
	if got := v.At(0, 7); got != 15 {
		t.Errorf("At(0,7) = %g, want 15", got)
	}

	v, err = ParseValue("structure(c(1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16),.Dim=c(1,16))")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	if got := v.Dims(); len(got) != 2 || got[0] != 1 || got[1] != 16 {
		t.Fatalf("Dims() = %v, want [1 16]", got)
	}

	v, err = ParseValue("structure(c(1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16),.Dim=c(8,2))")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	if got := v.Dims(); len(got) != 2 || got[0] != 8 || got[1] != 2 {
		t.Fatalf("Dims() = %v, want [8 2]", got)
	}
	for _, tc := range []struct {
		i, j int
		want float64
	}{
		{1, 0, 2},
		{7, 0, 8},
		{0, 1, 9},
		{6, 1, 15},
	} {
		if got := v.At(tc.i, tc.j); got != tc.want {
			t.Errorf("At(%d,%d) = %g, want %g", tc.i, tc.j, got, tc.want)
		}
	}
}

func TestParseValue_Scalars(t *testing.T) {
	v, err := ParseValue("128")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	if !v.IsScalar() || !v.IsInt() || v.Int() != 128 {
		t.Errorf("ParseValue(128) = %+v, want integer scalar 128", v)
	}

	v, err = ParseValue("0.809818")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	if !v.IsScalar() || v.IsInt() || v.Scalar() != 0.809818 {
		t.Errorf("ParseValue(0.809818) = %+v, want float scalar", v)
	}
}

func TestParseValue_BareArray(t *testing.T) {
	v, err := ParseValue("c(0.1, 0.2, 0.3)")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	if got := v.Dims(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("Dims() = %v, want [3]", got)
	}
	if v.At(1) != 0.2 {
		t.Errorf("At(1) = %g, want 0.2", v.At(1))
	}
}

func TestParseValue_Malformed(t *testing.T) {
	tests := []struct {
		name string
		rhs  string
	}{
		{"non-numeric literal", "hello"},
		{"unmatched parens", "c(1, 2, 3"},
		{"non-numeric element", "c(1, x, 3)"},
		{"dim product mismatch", "structure(c(1,2,3),.Dim=c(2,2))"},
		{"missing dim clause", "structure(c(1,2,3,4))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseValue(tt.rhs)
			if err == nil {
				t.Fatalf("ParseValue(%q) succeeded, want error", tt.rhs)
			}
			if IsFormatMismatch(err) {
				t.Errorf("ParseValue(%q) reported format mismatch, want malformed", tt.rhs)
			}
		})
	}
}

func TestParse_MetricFiles(t *testing.T) {
	diag := "inv_metric <- c(0.296291, 0.533432, 0.623988)\n"
	data, err := Parse(strings.NewReader(diag))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	v := data["inv_metric"]
	if got := v.Dims(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("inv_metric dims = %v, want [3]", got)
	}

	dense := "inv_metric <- structure(c(0.1,0.2,0.3,0.4,0.5,0.6,0.7,0.8,0.9), .Dim=c(3,3))\n"
	data, err = Parse(strings.NewReader(dense))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	v = data["inv_metric"]
	if got := v.Dims(); len(got) != 2 || got[0] != 3 || got[1] != 3 {
		t.Fatalf("inv_metric dims = %v, want [3 3]", got)
	}
}

func TestParse_MultiLineStatements(t *testing.T) {
	src := `N <- 128
M <- 2
x <- structure(c(1, 2, 3, 4,
5, 6, 7, 8),
.Dim=c(4, 2))
`
	data, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if data["N"].Int() != 128 {
		t.Errorf("N = %v, want 128", data["N"].Int())
	}
	if data["M"].Int() != 2 {
		t.Errorf("M = %v, want 2", data["M"].Int())
	}
	if got := data["x"].Dims(); len(got) != 2 || got[0] != 4 || got[1] != 2 {
		t.Fatalf("x dims = %v, want [4 2]", got)
	}
}

func TestParse_QuotedNames(t *testing.T) {
	src := `"N" <- 128
"y" <- c(1, 0, 1)
`
	data, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if data["N"].Int() != 128 {
		t.Errorf("N = %v, want 128", data["N"].Int())
	}
	if got := data["y"].Dims(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("y dims = %v, want [3]", got)
	}
}

func TestParse_FormatMismatch(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"inv_metric": [0.1, 0.2, 0.3]}`))
	if err == nil {
		t.Fatal("Parse of JSON content succeeded, want format mismatch")
	}
	if !IsFormatMismatch(err) {
		t.Errorf("Parse error = %v, want format mismatch", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no_such_file.data.R")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load of missing file succeeded, want error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the missing path", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.data.R")
	content := "N <- 10\ny <- c(0, 1, 0, 0, 0, 0, 0, 0, 0, 1)\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data["N"].Int() != 10 {
		t.Errorf("N = %v, want 10", data["N"].Int())
	}
	if data["y"].Len() != 10 {
		t.Errorf("len(y) = %d, want 10", data["y"].Len())
	}
}

func TestReshapeColumnMajor_RoundTrip(t *testing.T) {
	dims := []int{2, 3, 4}
	flat := make([]float64, 24)
	for i := range flat {
		flat[i] = float64(i + 1)
	}

	reshaped, err := ReshapeColumnMajor(flat, dims)
	if err != nil {
		t.Fatalf("ReshapeColumnMajor failed: %v", err)
	}
	back := FlattenColumnMajor(reshaped, dims)
	for i := range flat {
		if back[i] != flat[i] {
			t.Fatalf("round trip mismatch at %d: got %g, want %g", i, back[i], flat[i])
		}
	}
}

func TestReshapeColumnMajor_ProductMismatch(t *testing.T) {
	if _, err := ReshapeColumnMajor([]float64{1, 2, 3}, []int{2, 2}); err == nil {
		t.Fatal("ReshapeColumnMajor succeeded with mismatched dims, want error")
	}
}
