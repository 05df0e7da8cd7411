package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("STANRUN_CMDSTAN", "/opt/cmdstan-2.36.0")
	t.Setenv("STANRUN_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "set variable",
			input: "cmdstan: ${STANRUN_CMDSTAN}",
			want:  "cmdstan: /opt/cmdstan-2.36.0",
		},
		{
			name:  "unset variable expands empty",
			input: "output_dir: ${STANRUN_NOPE_12345}",
			want:  "output_dir: ",
		},
		{
			name:  "default used when unset",
			input: "output_dir: ${STANRUN_NOPE_12345:-/tmp/draws}",
			want:  "output_dir: /tmp/draws",
		},
		{
			name:  "default ignored when set",
			input: "cmdstan: ${STANRUN_CMDSTAN:-/opt/other}",
			want:  "cmdstan: /opt/cmdstan-2.36.0",
		},
		{
			name:  "default used when empty",
			input: "cmdstan: ${STANRUN_EMPTY:-/opt/other}",
			want:  "cmdstan: /opt/other",
		},
		{
			name:  "multiple references",
			input: "${STANRUN_CMDSTAN}:${STANRUN_NOPE_12345:-x}",
			want:  "/opt/cmdstan-2.36.0:x",
		},
		{
			name:  "no references pass through",
			input: "sampler:\n  chains: 4",
			want:  "sampler:\n  chains: 4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnv_NestedYAMLDocument(t *testing.T) {
	t.Setenv("STANRUN_CMDSTAN", "/opt/cmdstan-2.36.0")
	t.Setenv("STANRUN_SEED", "12345")

	input := `cmdstan: ${STANRUN_CMDSTAN}
sampler:
  seed: ${STANRUN_SEED}
  chains: 4`
	want := `cmdstan: /opt/cmdstan-2.36.0
sampler:
  seed: 12345
  chains: 4`

	if got := ExpandEnv(input); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
