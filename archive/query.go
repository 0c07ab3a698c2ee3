package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// ErrNoMessageFound is returned when no message record matches the query.
var ErrNoMessageFound = errors.New("no message records found")

// ErrNoMetricsFound is returned when no metrics record matches the query.
var ErrNoMetricsFound = errors.New("no metrics records found")

// MessageSummary is a read-side listing entry for an archived message.
type MessageSummary struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	State          string `json:"state"`
	Phase          string `json:"phase"`
	EventCount     int64  `json:"event_count"`
	ArtifactCount  int64  `json:"artifact_count"`
	Ts             string `json:"ts"`
}

// QueryLatestMessage finds the most recent message record, filtered by
// conversationID and messageID when non-empty. Returns the raw record map.
func (a *Archive) QueryLatestMessage(ctx context.Context, conversationID, messageID string) (map[string]any, error) {
	record, err := a.queryLatest(ctx, RecordKindMessage, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNoMessageFound
	}
	return record, nil
}

// QueryLatestMetrics finds the most recent metrics record, filtered by
// conversationID and messageID when non-empty.
func (a *Archive) QueryLatestMetrics(ctx context.Context, conversationID, messageID string) (map[string]any, error) {
	record, err := a.queryLatest(ctx, RecordKindMetrics, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNoMetricsFound
	}
	return record, nil
}

// QueryArtifacts returns all archived artifact records for a message, in
// write order.
func (a *Archive) QueryArtifacts(ctx context.Context, conversationID, messageID string) ([]map[string]any, error) {
	var out []map[string]any
	err := a.scan(ctx, RecordKindArtifact, conversationID, messageID, func(record map[string]any) bool {
		out = append(out, record)
		return true
	})
	return out, err
}

// ListMessages returns summaries of archived messages, newest last,
// filtered by conversationID when non-empty.
func (a *Archive) ListMessages(ctx context.Context, conversationID string) ([]MessageSummary, error) {
	var out []MessageSummary
	err := a.scan(ctx, RecordKindMessage, conversationID, "", func(record map[string]any) bool {
		out = append(out, MessageSummary{
			ConversationID: toString(record["conversation_id"]),
			MessageID:      toString(record["message_id"]),
			State:          toString(record["state"]),
			Phase:          toString(record["phase"]),
			EventCount:     toInt64(record["event_count"]),
			ArtifactCount:  toInt64(record["artifact_count"]),
			Ts:             toString(record["ts"]),
		})
		return true
	})
	return out, err
}

// queryLatest iterates snapshots newest first and returns the first
// matching record, or nil when none match.
func (a *Archive) queryLatest(ctx context.Context, recordKind, conversationID, messageID string) (map[string]any, error) {
	snapshots, err := a.dataset.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, "snapshots")
	}

	// Snapshots are ordered by creation time; walk latest first.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]

		if !snapshotMatchesPartition(snap, "record_type", recordKind) {
			continue
		}
		if !snapshotMatchesPartition(snap, "conversation_id", conversationID) {
			continue
		}
		if !snapshotMatchesPartition(snap, "message_id", messageID) {
			continue
		}

		data, err := a.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("snapshot/%s", snap.ID))
		}

		// Manifest path filtering is a coarse pre-filter; record fields
		// are authoritative.
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if !recordMatches(record, recordKind, conversationID, messageID) {
				continue
			}
			return record, nil
		}
	}

	return nil, nil
}

// scan visits every matching record oldest first. The visit callback
// returns false to stop early.
func (a *Archive) scan(ctx context.Context, recordKind, conversationID, messageID string, visit func(map[string]any) bool) error {
	snapshots, err := a.dataset.Snapshots(ctx)
	if err != nil {
		return WrapReadError(err, "snapshots")
	}

	for _, snap := range snapshots {
		if !snapshotMatchesPartition(snap, "record_type", recordKind) {
			continue
		}
		if !snapshotMatchesPartition(snap, "conversation_id", conversationID) {
			continue
		}
		if !snapshotMatchesPartition(snap, "message_id", messageID) {
			continue
		}

		data, err := a.dataset.Read(ctx, snap.ID)
		if err != nil {
			return WrapReadError(err, fmt.Sprintf("snapshot/%s", snap.ID))
		}

		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if !recordMatches(record, recordKind, conversationID, messageID) {
				continue
			}
			if !visit(record) {
				return nil
			}
		}
	}
	return nil
}

func recordMatches(record map[string]any, recordKind, conversationID, messageID string) bool {
	if toString(record["record_kind"]) != recordKind {
		return false
	}
	if conversationID != "" && toString(record["conversation_id"]) != conversationID {
		return false
	}
	if messageID != "" && toString(record["message_id"]) != messageID {
		return false
	}
	return true
}

// snapshotMatchesPartition checks whether any file path in the snapshot's
// manifest contains an exact key=value segment. An empty value matches
// everything. Exact segment matching avoids substring false positives
// (conv-1 matching conv-10).
func snapshotMatchesPartition(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	segment := key + "=" + value
	for _, f := range snap.Manifest.Files {
		for _, part := range strings.Split(f.Path, "/") {
			if part == segment {
				return true
			}
		}
	}
	return false
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 handles the numeric types a JSONL round-trip can produce.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
