package progress

import (
	"strings"
	"testing"
)

const sampleStream = `method = sample (Default)
  sample
    num_samples = 10000
    num_warmup = 10000

Gradient evaluation took 1.1e-05 seconds
Iteration:     1 / 20000 [  0%]  (Warmup)
Iteration:  2000 / 20000 [ 10%]  (Warmup)
Iteration:  4000 / 20000 [ 20%]  (Warmup)
Iteration:  6000 / 20000 [ 30%]  (Warmup)
Iteration:  8000 / 20000 [ 40%]  (Warmup)
Iteration: 10000 / 20000 [ 50%]  (Warmup)
Iteration: 10001 / 20000 [ 50%]  (Sampling)
Iteration: 12000 / 20000 [ 60%]  (Sampling)
Iteration: 14000 / 20000 [ 70%]  (Sampling)
Iteration: 16000 / 20000 [ 80%]  (Sampling)
Iteration: 18000 / 20000 [ 90%]  (Sampling)
Iteration: 20000 / 20000 [100%]  (Sampling)

 Elapsed Time: 0.024 seconds (Warm-up)
`

func TestMonitor(t *testing.T) {
	var console strings.Builder
	m := NewMonitor(strings.NewReader(sampleStream), 1, 10000, 20000, &console)

	if m.Phase() != PhaseNotStarted {
		t.Errorf("initial phase = %q, want %q", m.Phase(), PhaseNotStarted)
	}
	if m.Status() != PhaseNotStarted {
		t.Errorf("initial status = %q, want %q", m.Status(), PhaseNotStarted)
	}

	var iters []int
	for {
		iter, ok := m.Advance()
		if !ok {
			break
		}
		iters = append(iters, iter)

		switch len(iters) {
		case 1:
			if iter != 1 {
				t.Errorf("first iteration = %d, want 1", iter)
			}
			if m.Phase() != PhaseWarmup {
				t.Errorf("phase = %q, want %q", m.Phase(), PhaseWarmup)
			}
			if got, want := m.Status(), "Iteration:     1 / 20000 [  0%]  (Warmup)"; got != want {
				t.Errorf("status = %q, want %q", got, want)
			}
		case 6:
			if iter != 10000 {
				t.Errorf("sixth iteration = %d, want 10000", iter)
			}
			if m.Phase() != PhaseWarmup {
				t.Errorf("phase = %q, want %q", m.Phase(), PhaseWarmup)
			}
			if got, want := m.Status(), "Iteration: 10000 / 20000 [ 50%]  (Warmup)"; got != want {
				t.Errorf("status = %q, want %q", got, want)
			}
		case 7:
			if iter != 10001 {
				t.Errorf("seventh iteration = %d, want 10001", iter)
			}
			if m.Phase() != PhaseSampling {
				t.Errorf("phase = %q, want %q", m.Phase(), PhaseSampling)
			}
			if got, want := m.Status(), "Iteration: 10001 / 20000 [ 50%]  (Sampling)"; got != want {
				t.Errorf("status = %q, want %q", got, want)
			}
		}
	}

	if len(iters) != 12 {
		t.Errorf("saw %d iteration lines, want 12", len(iters))
	}
	if m.Iter() != 20000 {
		t.Errorf("final iter = %d, want 20000", m.Iter())
	}
	if got, want := m.Status(), "Iteration: 20000 / 20000 [100%]  (Sampling)"; got != want {
		t.Errorf("final status = %q, want %q", got, want)
	}
	if !m.Complete() {
		t.Error("Complete() = false after full stream")
	}
	if m.Err() != nil {
		t.Errorf("Err() = %v, want nil", m.Err())
	}

	echoed := console.String()
	if !strings.Contains(echoed, "Gradient evaluation") {
		t.Error("non-iteration lines not echoed to console")
	}
	if strings.Contains(echoed, "Iteration:") {
		t.Error("iteration lines echoed to console")
	}
}

func TestMonitor_IncompleteStream(t *testing.T) {
	stream := "Iteration:     1 / 20000 [  0%]  (Warmup)\nIteration:  2000 / 20000 [ 10%]  (Warmup)\n"
	m := NewMonitor(strings.NewReader(stream), 2, 10000, 20000, nil)

	for {
		if _, ok := m.Advance(); !ok {
			break
		}
	}
	if m.Complete() {
		t.Error("Complete() = true for a truncated stream")
	}
	if m.Iter() != 2000 {
		t.Errorf("iter = %d, want 2000", m.Iter())
	}
}

func TestMonitor_NilConsole(t *testing.T) {
	stream := "chatter\nIteration:     5 / 10 [ 50%]  (Warmup)\n"
	m := NewMonitor(strings.NewReader(stream), 1, 5, 10, nil)

	iter, ok := m.Advance()
	if !ok || iter != 5 {
		t.Fatalf("Advance = %d, %v; want 5, true", iter, ok)
	}
	if got, want := m.Status(), "Iteration:  5 / 10 [ 50%]  (Warmup)"; got != want {
		t.Errorf("status = %q, want %q", got, want)
	}
}
