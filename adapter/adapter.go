// Package adapter defines the notification boundary for finished sessions.
//
// Adapters publish message completion events to downstream systems: sync
// services, search indexers, audit pipelines. The host application owns
// adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/dictumlabs/dictum/types"
)

// MessageCompletedEvent is the payload published when a streamed message
// reaches a terminal state.
type MessageCompletedEvent struct {
	EventType      string `json:"event_type"` // always "message_completed"
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	State          string `json:"state"` // completed, cancelled, failed
	Phase          string `json:"phase"`
	TextLength     int64  `json:"text_length"`
	ArtifactCount  int64  `json:"artifact_count"`
	EventCount     int64  `json:"event_count"`
	DurationMs     int64  `json:"duration_ms"`
	ErrorMessage   string `json:"error_message,omitempty"`
	Timestamp      string `json:"timestamp"` // ISO 8601
}

// FromResult builds the completion event for a finished session.
func FromResult(res *types.SessionResult) *MessageCompletedEvent {
	return &MessageCompletedEvent{
		EventType:      "message_completed",
		ConversationID: res.Meta.ConversationID,
		MessageID:      res.Meta.MessageID,
		State:          string(res.State),
		Phase:          res.Phase.String(),
		TextLength:     int64(len(res.Text)),
		ArtifactCount:  int64(len(res.Artifacts)),
		EventCount:     res.EventCount,
		DurationMs:     res.DurationMillis,
		ErrorMessage:   res.ErrorMessage,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
}

// Adapter publishes message completion events to a downstream system.
type Adapter interface {
	// Publish sends a message completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *MessageCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
