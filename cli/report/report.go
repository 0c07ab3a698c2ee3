// Package report defines the read-side response shapes shared by the CLI
// renderer and the TUI. Both modes render the same payloads; no
// TUI-exclusive data is allowed.
package report

// MessageReport is the inspect response for one archived message.
type MessageReport struct {
	ConversationID string   `json:"conversation_id"`
	MessageID      string   `json:"message_id"`
	State          string   `json:"state"`
	Phase          string   `json:"phase"`
	Text           string   `json:"text"`
	EventCount     int64    `json:"event_count"`
	DurationMillis int64    `json:"duration_millis"`
	ArtifactCount  int64    `json:"artifact_count"`
	ErrorMessage   string   `json:"error_message,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Ts             string   `json:"ts"`
}

// ArtifactReport is the inspect response for one archived artifact.
type ArtifactReport struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Version int64  `json:"version"`
	Content string `json:"content"`
}

// MetricsReport is the stats response for one archived metrics record.
type MetricsReport struct {
	ConversationID     string `json:"conversation_id"`
	MessageID          string `json:"message_id"`
	ChunksReceived     int64  `json:"chunks_received"`
	BytesReceived      int64  `json:"bytes_received"`
	EventsDecoded      int64  `json:"events_decoded"`
	DecodeErrors       int64  `json:"decode_errors"`
	BlocksExtracted    int64  `json:"blocks_extracted"`
	ExtractionFailures int64  `json:"extraction_failures"`
	ArtifactsSurfaced  int64  `json:"artifacts_surfaced"`
	ArtifactUpdates    int64  `json:"artifact_updates"`
	EditsApplied       int64  `json:"edits_applied"`
	ReconcileWarnings  int64  `json:"reconcile_warnings"`
	SnapshotsEmitted   int64  `json:"snapshots_emitted"`
	SnapshotsDelivered int64  `json:"snapshots_delivered"`
	SnapshotsCoalesced int64  `json:"snapshots_coalesced"`
}

// FromMessageRecord converts a raw archive record into a MessageReport.
func FromMessageRecord(record map[string]any) *MessageReport {
	r := &MessageReport{
		ConversationID: str(record["conversation_id"]),
		MessageID:      str(record["message_id"]),
		State:          str(record["state"]),
		Phase:          str(record["phase"]),
		Text:           str(record["text"]),
		EventCount:     num(record["event_count"]),
		DurationMillis: num(record["duration_millis"]),
		ArtifactCount:  num(record["artifact_count"]),
		ErrorMessage:   str(record["error_message"]),
		Ts:             str(record["ts"]),
	}
	if warnings, ok := record["warnings"].([]any); ok {
		for _, w := range warnings {
			r.Warnings = append(r.Warnings, str(w))
		}
	}
	return r
}

// FromArtifactRecord converts a raw archive record into an ArtifactReport.
func FromArtifactRecord(record map[string]any) *ArtifactReport {
	return &ArtifactReport{
		Type:    str(record["artifact_type"]),
		Title:   str(record["title"]),
		Version: num(record["version"]),
		Content: str(record["content"]),
	}
}

// FromMetricsRecord converts a raw archive record into a MetricsReport.
func FromMetricsRecord(record map[string]any) *MetricsReport {
	return &MetricsReport{
		ConversationID:     str(record["conversation_id"]),
		MessageID:          str(record["message_id"]),
		ChunksReceived:     num(record["chunks_received"]),
		BytesReceived:      num(record["bytes_received"]),
		EventsDecoded:      num(record["events_decoded"]),
		DecodeErrors:       num(record["decode_errors"]),
		BlocksExtracted:    num(record["blocks_extracted"]),
		ExtractionFailures: num(record["extraction_failures"]),
		ArtifactsSurfaced:  num(record["artifacts_surfaced"]),
		ArtifactUpdates:    num(record["artifact_updates"]),
		EditsApplied:       num(record["edits_applied"]),
		ReconcileWarnings:  num(record["reconcile_warnings"]),
		SnapshotsEmitted:   num(record["snapshots_emitted"]),
		SnapshotsDelivered: num(record["snapshots_delivered"]),
		SnapshotsCoalesced: num(record["snapshots_coalesced"]),
	}
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// num handles the numeric types a JSONL round-trip can produce.
func num(v any) int64 {
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
