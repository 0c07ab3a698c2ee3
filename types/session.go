package types

import (
	"errors"
	"fmt"
)

// SessionMeta identifies one in-flight assistant response.
type SessionMeta struct {
	// ConversationID identifies the conversation the response belongs to.
	ConversationID string
	// MessageID identifies the assistant message being streamed.
	MessageID string
}

// Validate checks that both identity fields are present.
func (m *SessionMeta) Validate() error {
	if m.ConversationID == "" {
		return errors.New("conversation_id must be non-empty")
	}
	if m.MessageID == "" {
		return errors.New("message_id must be non-empty")
	}
	return nil
}

// SessionState is a streaming session controller state.
type SessionState string

// Session states. Transitions:
// Idle -> Connecting -> Streaming -> {Completed | Cancelled | Failed},
// plus any non-terminal -> Cancelled. No state is re-entered once terminal.
const (
	StateIdle       SessionState = "idle"
	StateConnecting SessionState = "connecting"
	StateStreaming  SessionState = "streaming"
	StateCompleted  SessionState = "completed"
	StateCancelled  SessionState = "cancelled"
	StateFailed     SessionState = "failed"
)

// IsTerminal returns true for the three terminal states.
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// ContextUsage is the most recent context-window usage report.
type ContextUsage struct {
	Usage        float64 `json:"usage"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
}

// Snapshot is the controller's per-chunk emission to the rendering sink:
// everything a renderer needs to redraw the in-flight message.
//
// Slices are copies; a Snapshot is safe to retain and read after the
// session has moved on.
type Snapshot struct {
	Meta  SessionMeta
	State SessionState
	// Seq is the snapshot sequence number, starting at 1.
	Seq int64

	Phase Phase
	// Text is the accumulated user-visible assistant text.
	Text string
	// ReasoningText is the accumulated reasoning text.
	ReasoningText string
	// PlanText is the accumulated plan delta text.
	PlanText string

	Artifacts      []Artifact
	Plans          []PlanBlock
	Tasks          []TaskBlock
	Clarifications []ClarifyQuestion
	// Warnings holds non-fatal reconciliation warnings, cumulatively.
	Warnings []string

	Context *ContextUsage
	// ErrorMessage is set when State is Failed. The partial Text is
	// retained and surfaced alongside it, never discarded.
	ErrorMessage string
}

// SessionResult summarizes a finished session.
type SessionResult struct {
	Meta           SessionMeta
	State          SessionState
	Phase          Phase
	Text           string
	Artifacts      []Artifact
	Plans          []PlanBlock
	Tasks          []TaskBlock
	Clarifications []ClarifyQuestion
	Warnings       []string
	ErrorMessage   string
	// EventCount is the number of decoded events, decode errors included.
	EventCount int64
	// DurationMillis is the wall-clock session duration.
	DurationMillis int64
}

// String renders a short human-readable summary.
func (r *SessionResult) String() string {
	return fmt.Sprintf("%s (%d events, %d artifacts, phase=%s)",
		r.State, r.EventCount, len(r.Artifacts), r.Phase)
}
