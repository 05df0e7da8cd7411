package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	prog "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stanforge/stanrun/runner"
	"github.com/stanforge/stanrun/types"
)

// chainProgressMsg carries one chain's progress update into the TUI loop.
type chainProgressMsg runner.ProgressEvent

// runDoneMsg signals that all chains have finished.
type runDoneMsg struct {
	result *runner.RunResult
}

// RunView is the live multi-chain run view. It is fed the same progress
// events the plain console output is: wire OnProgress into the run
// configuration, call Done when the run returns, and Run blocks until the
// view exits.
type RunView struct {
	events chan tea.Msg
	model  runModel
}

// NewRunView creates a live run view for the given run.
func NewRunView(meta *types.RunMeta, iterTotal int) *RunView {
	chains := meta.Chains
	bars := make([]prog.Model, chains)
	for i := range bars {
		bars[i] = prog.New(prog.WithDefaultGradient(), prog.WithWidth(40))
	}

	events := make(chan tea.Msg, 4*chains)
	return &RunView{
		events: events,
		model: runModel{
			meta:    meta,
			total:   iterTotal,
			bars:    bars,
			iters:   make([]int, chains),
			phases:  make([]string, chains),
			outcome: make([]string, chains),
			events:  events,
		},
	}
}

// OnProgress forwards a progress event into the view.
// Safe for concurrent calls from chain goroutines.
func (v *RunView) OnProgress(ev runner.ProgressEvent) {
	v.events <- chainProgressMsg(ev)
}

// Done signals run completion with the final result.
func (v *RunView) Done(result *runner.RunResult) {
	v.events <- runDoneMsg{result: result}
}

// Run starts the view and blocks until it exits.
func (v *RunView) Run() error {
	p := tea.NewProgram(v.model)
	_, err := p.Run()
	return err
}

// runModel is the Bubble Tea model behind RunView.
type runModel struct {
	meta    *types.RunMeta
	total   int
	bars    []prog.Model
	iters   []int
	phases  []string
	outcome []string
	result  *runner.RunResult
	done    bool
	events  <-chan tea.Msg
	width   int
	height  int
}

// Init implements tea.Model.
func (m runModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update implements tea.Model.
func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}

	case chainProgressMsg:
		if msg.ChainID >= 1 && msg.ChainID <= len(m.iters) {
			m.iters[msg.ChainID-1] = msg.Iter
			m.phases[msg.ChainID-1] = msg.Phase
		}
		return m, waitForEvent(m.events)

	case runDoneMsg:
		m.done = true
		m.result = msg.result
		for _, o := range msg.result.Outcomes {
			if o.ChainID >= 1 && o.ChainID <= len(m.outcome) {
				m.outcome[o.ChainID-1] = string(o.Status)
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m runModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Sampling %s (%s)", m.meta.Model, m.meta.RunID)))
	b.WriteString("\n\n")

	for i, bar := range m.bars {
		pct := 0.0
		if m.total > 0 {
			pct = float64(m.iters[i]) / float64(m.total)
		}

		state := m.phases[i]
		if state == "" {
			state = "Not started"
		}
		if m.outcome[i] != "" {
			state = m.outcome[i]
		}

		b.WriteString(fmt.Sprintf("%s %s %s\n",
			LabelStyle.Render(fmt.Sprintf("Chain %d:", i+1)),
			bar.ViewAs(pct),
			StateStyle(stateKey(state)).Render(state)))
	}

	if m.done {
		b.WriteString("\n")
		if m.result.Success() {
			b.WriteString(SuccessStyle.Render("Run completed"))
		} else {
			b.WriteString(ErrorStyle.Render("Run failed"))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(HelpStyle.Render("Press q or Ctrl+C to abandon the view"))
		b.WriteString("\n")
	}

	return b.String()
}

// stateKey normalizes a display state to a StateStyle key.
func stateKey(state string) string {
	switch state {
	case "Warmup":
		return "warmup"
	case "Sampling":
		return "sampling"
	default:
		return state
	}
}

// waitForEvent returns a command that blocks for the next run event.
func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}
