package archive

import (
	"time"

	"github.com/dictumlabs/dictum/metrics"
	"github.com/dictumlabs/dictum/types"
)

// Record kind discriminator values. record_type doubles as a partition key.
const (
	RecordKindMessage  = "message"
	RecordKindArtifact = "artifact"
	RecordKindMetrics  = "metrics"
)

// toMessageRecordMap builds the storage record for a finished session.
// Lode HiveLayout requires records as map[string]any.
func toMessageRecordMap(res *types.SessionResult, day string) map[string]any {
	m := map[string]any{
		"record_kind":     RecordKindMessage,
		"record_type":     RecordKindMessage, // partition key
		"conversation_id": res.Meta.ConversationID,
		"message_id":      res.Meta.MessageID,
		"day":             day,
		"state":           string(res.State),
		"phase":           res.Phase.String(),
		"text":            res.Text,
		"event_count":     res.EventCount,
		"duration_millis": res.DurationMillis,
		"artifact_count":  int64(len(res.Artifacts)),
		"ts":              time.Now().UTC().Format(time.RFC3339),
	}
	if res.ErrorMessage != "" {
		m["error_message"] = res.ErrorMessage
	}
	if len(res.Warnings) > 0 {
		m["warnings"] = res.Warnings
	}
	return m
}

// toArtifactRecordMap builds the storage record for one surfaced artifact.
func toArtifactRecordMap(meta types.SessionMeta, art types.Artifact, day string) map[string]any {
	return map[string]any{
		"record_kind":     RecordKindArtifact,
		"record_type":     RecordKindArtifact, // partition key
		"conversation_id": meta.ConversationID,
		"message_id":      meta.MessageID,
		"day":             day,
		"artifact_type":   string(art.Type),
		"title":           art.Title,
		"content":         art.Content,
		"version":         int64(art.Version),
	}
}

// toMetricsRecordMap builds the storage record for a metrics snapshot.
func toMetricsRecordMap(snap metrics.Snapshot, day string) map[string]any {
	byKind := make(map[string]any, len(snap.EventsByKind))
	for k, v := range snap.EventsByKind {
		byKind[k] = v
	}

	return map[string]any{
		"record_kind":         RecordKindMetrics,
		"record_type":         RecordKindMetrics, // partition key
		"conversation_id":     snap.ConversationID,
		"message_id":          snap.MessageID,
		"day":                 day,
		"chunks_received":     snap.ChunksReceived,
		"bytes_received":      snap.BytesReceived,
		"events_decoded":      snap.EventsDecoded,
		"events_by_kind":      byKind,
		"decode_errors":       snap.DecodeErrors,
		"blocks_extracted":    snap.BlocksExtracted,
		"extraction_failures": snap.ExtractionFailures,
		"artifacts_surfaced":  snap.ArtifactsSurfaced,
		"artifact_updates":    snap.ArtifactUpdates,
		"edits_applied":       snap.EditsApplied,
		"reconcile_warnings":  snap.ReconcileWarnings,
		"snapshots_emitted":   snap.SnapshotsEmitted,
		"snapshots_delivered": snap.SnapshotsDelivered,
		"snapshots_coalesced": snap.SnapshotsCoalesced,
		"ts":                  time.Now().UTC().Format(time.RFC3339),
	}
}
