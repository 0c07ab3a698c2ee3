// Package types defines core domain types for the dictum streaming core.
//
//nolint:revive // types is a common Go package naming convention
package types

// EventKind discriminates stream event variants.
type EventKind string

// Event kind constants. One per wire discriminator, plus DecodeError for
// records that could not be decoded.
const (
	KindContent     EventKind = "content"
	KindReasoning   EventKind = "reasoning"
	KindPlan        EventKind = "plan"
	KindStatus      EventKind = "status"
	KindContext     EventKind = "context"
	KindError       EventKind = "error"
	KindDecodeError EventKind = "decode_error"
)

// Event is a decoded stream event. The variant set is closed: every
// implementation lives in this package, and consumers switch exhaustively
// over the concrete types with a default-deny branch for safety.
//
// Events are immutable and carry only the payload their consumer needs.
// They are produced in arrival order and never reordered.
type Event interface {
	eventKind() EventKind
}

// KindOf returns the kind discriminator for an event.
func KindOf(e Event) EventKind { return e.eventKind() }

// ContentDelta is a user-visible assistant text delta (wire code "c").
type ContentDelta struct {
	Text string
}

func (ContentDelta) eventKind() EventKind { return KindContent }

// ReasoningDelta is a reasoning/thinking text delta (wire code "r").
type ReasoningDelta struct {
	Text string
}

func (ReasoningDelta) eventKind() EventKind { return KindReasoning }

// PlanDelta is a planning text delta (wire code "p").
type PlanDelta struct {
	Text string
}

func (PlanDelta) eventKind() EventKind { return KindPlan }

// StatusUpdate carries an explicit phase report (wire code "s").
type StatusUpdate struct {
	Phase Phase
}

func (StatusUpdate) eventKind() EventKind { return KindStatus }

// ContextUpdate carries context-window usage metrics (wire code "x").
type ContextUpdate struct {
	// Usage is the context window usage fraction in [0, 1].
	Usage float64
	// InputTokens is the prompt token count.
	InputTokens int64
	// OutputTokens is the completion token count so far.
	OutputTokens int64
}

func (ContextUpdate) eventKind() EventKind { return KindContext }

// AssistantError is an error reported by the assistant (wire code "e").
// Fatal to the session: the controller transitions to Failed while
// preserving the partial accumulated text.
type AssistantError struct {
	Message string
	// Code is an optional machine-readable error code.
	Code string
}

func (AssistantError) eventKind() EventKind { return KindError }

// DecodeError surfaces a record that could not be decoded. Non-fatal:
// the session skips the record and continues. Emitted for diagnostics
// rather than raised, so a corrupt record never aborts a stream.
type DecodeError struct {
	// Raw is the offending record, verbatim.
	Raw string
	// Reason describes why decoding failed.
	Reason string
}

func (DecodeError) eventKind() EventKind { return KindDecodeError }
