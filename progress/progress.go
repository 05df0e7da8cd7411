// Package progress tracks a running sampler chain by parsing the iteration
// lines it prints to its combined output stream.
package progress

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// Phase names reported by a Monitor.
const (
	PhaseNotStarted = "Not started"
	PhaseWarmup     = "Warmup"
	PhaseSampling   = "Sampling"
)

// iterLine matches the sampler's refresh lines, e.g.
// "Iteration:  2000 / 20000 [ 10%]  (Warmup)".
var iterLine = regexp.MustCompile(`Iteration:\s*(\d+)\s*/\s*(\d+)`)

// Monitor consumes one chain's output stream and tracks its progress.
// Each Advance call blocks until the next iteration line arrives or
// the stream ends; lines that are not iteration lines are echoed to the
// console writer, when one is set, without advancing the counter.
// Not safe for concurrent use; each chain gets its own Monitor.
type Monitor struct {
	chainID    int
	iterWarmup int
	iterTotal  int
	console    io.Writer

	scanner *bufio.Scanner
	iter    int
	done    bool
	err     error
}

// NewMonitor wraps a chain's combined output stream. console may be nil.
func NewMonitor(r io.Reader, chainID, iterWarmup, iterTotal int, console io.Writer) *Monitor {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4*1024), 1024*1024)
	return &Monitor{
		chainID:    chainID,
		iterWarmup: iterWarmup,
		iterTotal:  iterTotal,
		console:    console,
		scanner:    s,
	}
}

// ChainID returns the chain this monitor observes.
func (m *Monitor) ChainID() int { return m.chainID }

// Advance blocks until the next iteration line and returns its 1-based
// iteration number. It returns ok=false once the stream is exhausted;
// after that the monitor is terminal and Complete and Err are meaningful.
func (m *Monitor) Advance() (iter int, ok bool) {
	for m.scanner.Scan() {
		line := m.scanner.Text()
		match := iterLine.FindStringSubmatch(line)
		if match == nil {
			if m.console != nil {
				fmt.Fprintln(m.console, line)
			}
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		m.iter = n
		return n, true
	}
	m.done = true
	m.err = m.scanner.Err()
	return 0, false
}

// Iter returns the most recently observed 1-based iteration number, 0
// before the first iteration line.
func (m *Monitor) Iter() int { return m.iter }

// Phase returns the current phase name, derived from the iteration
// counter and the configured warmup total.
func (m *Monitor) Phase() string {
	switch {
	case m.iter == 0:
		return PhaseNotStarted
	case m.iter <= m.iterWarmup:
		return PhaseWarmup
	default:
		return PhaseSampling
	}
}

// Status returns the formatted progress line for the current counters,
// in the same shape the sampler itself prints.
func (m *Monitor) Status() string {
	if m.iter == 0 {
		return PhaseNotStarted
	}
	total := strconv.Itoa(m.iterTotal)
	pct := 0
	if m.iterTotal > 0 {
		pct = m.iter * 100 / m.iterTotal
	}
	return fmt.Sprintf("Iteration: %*d / %s [%3d%%]  (%s)", len(total), m.iter, total, pct, m.Phase())
}

// Complete reports whether the stream ended with the counter at the
// configured total.
func (m *Monitor) Complete() bool {
	return m.done && m.iter == m.iterTotal
}

// Err returns the stream read error observed at exhaustion, if any.
func (m *Monitor) Err() error { return m.err }
