package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stanforge/stanrun/stancsv"
)

// InspectModel is a Bubble Tea model for inspect views.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_output":
		content = m.renderInspectOutput()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectOutput() string {
	data, ok := m.data.(*stancsv.Metadata)
	if !ok {
		return "Invalid data type for inspect_output"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Sampler Output"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Model", data.Model},
		{"Method", data.Method},
		{"Num Samples", fmt.Sprintf("%d", data.NumSamples)},
		{"Num Warmup", fmt.Sprintf("%d", data.NumWarmup)},
		{"Thin", fmt.Sprintf("%d", data.Thin)},
		{"Save Warmup", fmt.Sprintf("%t", data.SaveWarmup)},
		{"Seed", fmt.Sprintf("%d", data.Seed)},
	}

	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render(row[0]+":"),
			ValueStyle.Render(row[1])))
	}

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Adaptation"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("  Step Size:"),
		ValueStyle.Render(fmt.Sprintf("%g", data.StepSize))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("  Metric:"),
		ValueStyle.Render(data.MetricKind)))
	if len(data.MetricDims) > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("  Metric Dims:"),
			ValueStyle.Render(dimsString(data.MetricDims))))
	}

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Draws"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("  Sampling:"),
		ValueStyle.Render(fmt.Sprintf("%d", data.DrawsSampling))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("  Warmup:"),
		ValueStyle.Render(fmt.Sprintf("%d", data.DrawsWarmup))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("  Columns:"),
		ValueStyle.Render(fmt.Sprintf("%d", len(data.ColumnNames)))))

	if len(data.StanVarDims) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Variables"))
		b.WriteString("\n")
		for _, name := range sortedVarNames(data.StanVarDims) {
			dims := data.StanVarDims[name]
			shape := "scalar"
			if len(dims) > 0 {
				shape = dimsString(dims)
			}
			b.WriteString(fmt.Sprintf("  • %s %s\n",
				ValueStyle.Render(name),
				LabelStyle.Render(shape)))
		}
	}

	return BoxStyle.Render(b.String())
}

func dimsString(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func sortedVarNames(vars map[string][]int) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
