// Package iox holds small cleanup helpers shared by the file-heavy
// packages (dump parsing, CSV scanning, chain process plumbing).
package iox

import "io"

// DiscardClose closes c, dropping the error. For deferred closes of
// read-side files where a close failure changes nothing:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// DiscardErr calls fn and drops its error. For deferred non-Close
// cleanup such as a writer flush:
//
//	defer iox.DiscardErr(w.Flush)
func DiscardErr(fn func() error) { _ = fn() }
