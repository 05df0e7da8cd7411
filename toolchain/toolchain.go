// Package toolchain locates and validates a CmdStan installation: the build
// directory the model compiler runs make in and the stanc binary lives under.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// EnvVar names the environment variable that pins the CmdStan directory.
const EnvVar = "CMDSTAN"

// installPrefix is the directory-name prefix of versioned installations.
const installPrefix = "cmdstan-"

// homeInstallDir is the per-user installation root, relative to $HOME.
const homeInstallDir = ".cmdstan"

var (
	pathMu     sync.Mutex
	cachedPath string
)

// Path resolves the CmdStan installation directory: the CMDSTAN environment
// variable when set, otherwise the latest versioned installation under
// ~/.cmdstan. The first successful resolution is cached for the life of the
// process; SetPath replaces it.
func Path() (string, error) {
	pathMu.Lock()
	defer pathMu.Unlock()
	if cachedPath != "" {
		return cachedPath, nil
	}
	dir, err := resolve()
	if err != nil {
		return "", err
	}
	cachedPath = dir
	return dir, nil
}

// SetPath validates dir and pins it as the process-wide CmdStan directory,
// bypassing environment and home-directory resolution.
func SetPath(dir string) error {
	if err := Validate(dir); err != nil {
		return err
	}
	pathMu.Lock()
	cachedPath = dir
	pathMu.Unlock()
	return nil
}

// Reset clears the cached installation directory so the next Path call
// resolves again.
func Reset() {
	pathMu.Lock()
	cachedPath = ""
	pathMu.Unlock()
}

func resolve() (string, error) {
	if dir := os.Getenv(EnvVar); dir != "" {
		if err := Validate(dir); err != nil {
			return "", err
		}
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	root := filepath.Join(home, homeInstallDir)
	name, err := Latest(root)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, name)
	if err := Validate(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// Validate checks that dir is a CmdStan installation: it must exist and
// contain the compiled toolchain binaries under bin/.
func Validate(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("no such CmdStan directory %s", dir)
	}
	binDir := filepath.Join(dir, "bin")
	entries, err := os.ReadDir(binDir)
	if err != nil || len(entries) == 0 {
		return fmt.Errorf("no CmdStan binaries in %s, run \"make build\" in the CmdStan directory", dir)
	}
	return nil
}

// Latest returns the name of the newest cmdstan-* installation under root.
// Release candidates order before the corresponding release, so 2.22.0-rc2
// loses to 2.22.0.
func Latest(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("no CmdStan installation found in %s: %w", root, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), installPrefix) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no CmdStan installation found in %s", root)
	}

	sort.Slice(names, func(i, j int) bool {
		return compareVersions(parseVersion(names[i]), parseVersion(names[j])) < 0
	})
	return names[len(names)-1], nil
}

// Version returns the (major, minor) version of the installation at dir,
// parsed from its directory name.
func Version(dir string) (major, minor int, ok bool) {
	v := parseVersion(filepath.Base(dir))
	if len(v) < 2 {
		return 0, 0, false
	}
	return v[0], v[1], true
}

// VersionAt reports whether the installation at dir is at least version
// major.minor. Unparseable directory names report false.
func VersionAt(dir string, major, minor int) bool {
	gotMajor, gotMinor, ok := Version(dir)
	if !ok {
		return false
	}
	if gotMajor != major {
		return gotMajor > major
	}
	return gotMinor >= minor
}

// EnsureDir creates path as a directory when it does not exist.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("file exists, cannot create directory %s", path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", path, err)
	}
	return nil
}

// parseVersion extracts a comparable version tuple from an installation
// name. Numeric components come first; a trailing rcN contributes N, while
// a plain release contributes a sentinel that sorts above any rc.
func parseVersion(name string) []int {
	name = strings.TrimPrefix(name, installPrefix)

	rc := 1 << 20
	if base, tail, found := strings.Cut(name, "-rc"); found {
		name = base
		if n, err := strconv.Atoi(tail); err == nil {
			rc = n
		}
	}

	parts := strings.Split(name, ".")
	v := make([]int, 0, len(parts)+1)
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		v = append(v, n)
	}
	return append(v, rc)
}

// compareVersions orders two version tuples lexicographically. A nil tuple
// sorts first.
func compareVersions(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
