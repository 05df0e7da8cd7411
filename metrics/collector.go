// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single sampling run. It is a
// leaf package with no internal dependencies. Per-chain draw counts are
// absorbed from the validated output metadata at run completion rather than
// recorded live, avoiding double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Chain lifecycle
	ChainsStarted   int64
	ChainsCompleted int64
	ChainsFailed    int64
	ChainsCrashed   int64

	// Draws (absorbed from validated output metadata at run completion)
	DrawsSampling int64
	DrawsWarmup   int64
	Divergences   int64

	// Sampler process
	LaunchSuccess   int64
	LaunchFailure   int64
	OutputScanError int64

	// Dimensions (informational, set at construction)
	Model  string
	Method string
	RunID  string
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	// Chain lifecycle
	chainsStarted   int64
	chainsCompleted int64
	chainsFailed    int64
	chainsCrashed   int64

	// Sampler process
	launchSuccess   int64
	launchFailure   int64
	outputScanError int64

	// Draws (set via AbsorbDrawStats)
	drawsSampling int64
	drawsWarmup   int64
	divergences   int64

	// Dimensions
	model  string
	method string
	runID  string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(model, method, runID string) *Collector {
	return &Collector{
		model:  model,
		method: method,
		runID:  runID,
	}
}

// --- Chain lifecycle ---

// IncChainStarted records a chain start.
func (c *Collector) IncChainStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chainsStarted++
	c.mu.Unlock()
}

// IncChainCompleted records a successful chain completion.
func (c *Collector) IncChainCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chainsCompleted++
	c.mu.Unlock()
}

// IncChainFailed records a chain failure (sampler error or invalid output).
func (c *Collector) IncChainFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chainsFailed++
	c.mu.Unlock()
}

// IncChainCrashed records a chain crash (launch failure or abnormal exit).
func (c *Collector) IncChainCrashed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chainsCrashed++
	c.mu.Unlock()
}

// --- Sampler process ---

// IncLaunchSuccess records a successful sampler launch.
func (c *Collector) IncLaunchSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.launchSuccess++
	c.mu.Unlock()
}

// IncLaunchFailure records a failed sampler launch.
func (c *Collector) IncLaunchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.launchFailure++
	c.mu.Unlock()
}

// IncOutputScanError records a malformed or inconsistent output file.
func (c *Collector) IncOutputScanError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.outputScanError++
	c.mu.Unlock()
}

// --- Draws (absorbed from output metadata) ---

// AbsorbDrawStats accumulates draw counters from one chain's validated
// output metadata. Called once per completed chain.
func (c *Collector) AbsorbDrawStats(sampling, warmup, divergences int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.drawsSampling += sampling
	c.drawsWarmup += warmup
	c.divergences += divergences
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ChainsStarted:   c.chainsStarted,
		ChainsCompleted: c.chainsCompleted,
		ChainsFailed:    c.chainsFailed,
		ChainsCrashed:   c.chainsCrashed,

		DrawsSampling: c.drawsSampling,
		DrawsWarmup:   c.drawsWarmup,
		Divergences:   c.divergences,

		LaunchSuccess:   c.launchSuccess,
		LaunchFailure:   c.launchFailure,
		OutputScanError: c.outputScanError,

		Model:  c.model,
		Method: c.method,
		RunID:  c.runID,
	}
}
