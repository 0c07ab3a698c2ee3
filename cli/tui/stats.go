package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dictumlabs/dictum/cli/report"
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
		if key.Matches(msg, keys.Quit) {
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
	case "stats_metrics":
		content = m.renderStatsMetrics()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsMetrics() string {
	data, ok := m.data.(*report.MetricsReport)
	if !ok {
		return "Invalid data type for stats_metrics"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Session Metrics"))
	b.WriteString("\n\n")

	wireBoxes := []string{
		m.renderStatBox("Chunks", data.ChunksReceived, highlightColor),
		m.renderStatBox("Events", data.EventsDecoded, highlightColor),
		m.renderStatBox("Decode Errors", data.DecodeErrors, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, wireBoxes...))
	b.WriteString("\n\n")

	extractBoxes := []string{
		m.renderStatBox("Blocks", data.BlocksExtracted, highlightColor),
		m.renderStatBox("Artifacts", data.ArtifactsSurfaced, successColor),
		m.renderStatBox("Edits", data.EditsApplied, successColor),
		m.renderStatBox("Warnings", data.ReconcileWarnings, warningColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, extractBoxes...))
	b.WriteString("\n\n")

	deliveryBoxes := []string{
		m.renderStatBox("Emitted", data.SnapshotsEmitted, highlightColor),
		m.renderStatBox("Delivered", data.SnapshotsDelivered, successColor),
		m.renderStatBox("Coalesced", data.SnapshotsCoalesced, mutedColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, deliveryBoxes...))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	box := StatBoxStyle.BorderForeground(color)
	content := StatValueStyle.Render(fmt.Sprintf("%d", value)) + "\n" +
		StatLabelStyle.Render(label)
	return box.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
