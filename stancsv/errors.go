package stancsv

import (
	"errors"
	"fmt"
)

// ConfigError reports well-formed output that is inconsistent with the
// caller's declared run configuration. The message always carries both the
// expected and the found values.
type ConfigError struct {
	Path string
	Msg  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("bad csv file %s, %s", e.Path, e.Msg)
}

// IsConfigError reports whether err is an expectation mismatch, as opposed
// to structurally malformed output.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ScanError reports structurally malformed output: a bad draw row, a
// missing adaptation block, an unparsable step size.
type ScanError struct {
	Line int
	Msg  string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
