package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dictumlabs/dictum/cli/report"
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
	case "inspect_message":
		content = m.renderInspectMessage()
	case "inspect_artifacts":
		content = m.renderInspectArtifacts()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectMessage() string {
	data, ok := m.data.(*report.MessageReport)
	if !ok {
		return "Invalid data type for inspect_message"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Message Details"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Conversation", data.ConversationID},
		{"Message", data.MessageID},
		{"State", data.State},
		{"Phase", data.Phase},
		{"Events", fmt.Sprintf("%d", data.EventCount)},
		{"Duration", fmt.Sprintf("%dms", data.DurationMillis)},
		{"Artifacts", fmt.Sprintf("%d", data.ArtifactCount)},
		{"Archived At", data.Ts},
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := row[1]
		switch row[0] {
		case "State":
			value = StateStyle(data.State).Render(value)
		case "Phase":
			value = PhaseStyle(data.Phase).Render(value)
		default:
			value = ValueStyle.Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	if data.ErrorMessage != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Error:"),
			ErrorStyle.Render(data.ErrorMessage)))
	}

	if len(data.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("Warnings:\n"))
		for _, w := range data.Warnings {
			b.WriteString(fmt.Sprintf("  • %s\n", WarningStyle.Render(w)))
		}
	}

	if data.Text != "" {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Text"))
		b.WriteString("\n")
		b.WriteString(ValueStyle.Render(truncate(data.Text, 2000)))
		b.WriteString("\n")
	}

	return BoxStyle.Render(b.String())
}

func (m InspectModel) renderInspectArtifacts() string {
	data, ok := m.data.([]*report.ArtifactReport)
	if !ok {
		return "Invalid data type for inspect_artifacts"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Artifacts"))
	b.WriteString("\n\n")

	if len(data) == 0 {
		b.WriteString(ValueStyle.Render("(no artifacts)"))
		return BoxStyle.Render(b.String())
	}

	for _, art := range data {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Title:"),
			ValueStyle.Render(art.Title)))
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Type:"),
			ValueStyle.Render(art.Type)))
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Version:"),
			ValueStyle.Render(fmt.Sprintf("%d", art.Version))))
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Content:"),
			ValueStyle.Render(truncate(art.Content, 200))))
		b.WriteString("\n")
	}

	return BoxStyle.Render(b.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
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
