package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dictumlabs/dictum/notify"
	"github.com/dictumlabs/dictum/types"
)

// snapshotMsg carries one session snapshot into the live view.
type snapshotMsg struct {
	snap *types.Snapshot
}

// resultMsg carries the terminal session result into the live view.
type resultMsg struct {
	res *types.SessionResult
}

// Live couples a running session to a Bubble Tea program. The session's
// deliverer pushes snapshots into the view through Sink; the view redraws
// the in-flight message as it streams.
type Live struct {
	program *tea.Program
}

// NewLive creates a live view for the given session identity.
func NewLive(meta types.SessionMeta) *Live {
	model := liveModel{meta: meta}
	return &Live{program: tea.NewProgram(model, tea.WithAltScreen())}
}

// Sink returns the snapshot sink to wire into the session's deliverer.
// Safe to call from the session goroutine while Run blocks.
func (l *Live) Sink() notify.Sink {
	return notify.SinkFunc(func(snap *types.Snapshot) {
		l.program.Send(snapshotMsg{snap: snap})
	})
}

// Finish pushes the terminal result into the view.
func (l *Live) Finish(res *types.SessionResult) {
	l.program.Send(resultMsg{res: res})
}

// Run blocks until the user quits the view.
func (l *Live) Run() error {
	_, err := l.program.Run()
	return err
}

// liveModel is the Bubble Tea model behind Live.
type liveModel struct {
	meta     types.SessionMeta
	latest   *types.Snapshot
	result   *types.SessionResult
	width    int
	height   int
	quitting bool
}

// Init implements tea.Model.
func (m liveModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.latest = msg.snap
		return m, nil

	case resultMsg:
		m.result = msg.res
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
func (m liveModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Streaming %s / %s",
		m.meta.ConversationID, m.meta.MessageID)))
	b.WriteString("\n\n")

	if m.latest == nil {
		b.WriteString(ValueStyle.Render("Waiting for first chunk..."))
		help := HelpStyle.Render("Press q or Ctrl+C to quit")
		return b.String() + "\n" + help
	}

	snap := m.latest
	state := string(snap.State)
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %d\n",
		LabelStyle.Render("State:"), StateStyle(state).Render(state),
		LabelStyle.Render("Phase:"), PhaseStyle(snap.Phase.String()).Render(snap.Phase.String()),
		LabelStyle.Render("Seq:"), snap.Seq))

	if snap.Context != nil {
		b.WriteString(fmt.Sprintf("%s %.0f%% (%d in / %d out)\n",
			LabelStyle.Render("Context:"),
			snap.Context.Usage*100, snap.Context.InputTokens, snap.Context.OutputTokens))
	}

	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(tailLines(snap.Text, 12)))
	b.WriteString("\n")

	if len(snap.Artifacts) > 0 {
		b.WriteString(TitleStyle.Render("Artifacts"))
		b.WriteString("\n")
		for _, art := range snap.Artifacts {
			b.WriteString(fmt.Sprintf("  • %s (%s, v%d)\n",
				ValueStyle.Render(art.Title), art.Type, art.Version))
		}
	}

	if len(snap.Warnings) > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%d warning(s)\n", len(snap.Warnings))))
	}

	if m.result != nil {
		b.WriteString("\n")
		b.WriteString(StateStyle(string(m.result.State)).Render(m.result.String()))
		b.WriteString("\n")
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + "\n" + help
}

// tailLines returns the last n lines of s.
func tailLines(s string, n int) string {
	if s == "" {
		return "(no text yet)"
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
