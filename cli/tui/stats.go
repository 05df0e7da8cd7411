package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stanforge/stanrun/metrics"
)

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_run":
		content = m.renderStatsRun()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsRun() string {
	data, ok := m.data.(metrics.Snapshot)
	if !ok {
		return "Invalid data type for stats_run"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Run Statistics"))
	b.WriteString("\n\n")

	if data.Model != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Model:"),
			ValueStyle.Render(data.Model)))
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Run ID:"),
			ValueStyle.Render(data.RunID)))
		b.WriteString("\n")
	}

	// Chain lifecycle boxes
	chains := []string{
		m.renderStatBox("Started", data.ChainsStarted, highlightColor),
		m.renderStatBox("Completed", data.ChainsCompleted, successColor),
		m.renderStatBox("Failed", data.ChainsFailed, errorColor),
		m.renderStatBox("Crashed", data.ChainsCrashed, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chains...))
	b.WriteString("\n\n")

	// Draw boxes
	draws := []string{
		m.renderStatBox("Sampling", data.DrawsSampling, highlightColor),
		m.renderStatBox("Warmup", data.DrawsWarmup, warningColor),
		m.renderStatBox("Divergences", data.Divergences, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, draws...))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
