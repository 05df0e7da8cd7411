// Package config handles YAML config file loading for stanrun.
package config

import (
	"os"
	"regexp"
)

// envRef matches ${VAR} and ${VAR:-default} references.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} references with the
// named environment variable. A variable that is unset or empty falls back
// to its default; with no default it expands to the empty string, leaving
// any resulting gap (a missing cmdstan dir, say) to downstream validation.
func ExpandEnv(input string) string {
	return envRef.ReplaceAllStringFunc(input, func(ref string) string {
		groups := envRef.FindStringSubmatch(ref)
		name, fallback := groups[1], groups[2]
		if value, ok := os.LookupEnv(name); ok && value != "" {
			return value
		}
		return fallback
	})
}
