// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters for a single streaming session. It is
// a leaf package with no internal dependencies. Delivery stats are absorbed
// from notify at session completion rather than recorded live, avoiding
// double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all session metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64
	SessionsCompleted int64
	SessionsFailed    int64
	SessionsCancelled int64

	// Wire
	ChunksReceived int64
	BytesReceived  int64
	EventsDecoded  int64
	EventsByKind   map[string]int64
	DecodeErrors   int64

	// Extraction / reconciliation
	BlocksExtracted    int64
	ExtractionFailures int64
	ArtifactsSurfaced  int64
	ArtifactUpdates    int64
	EditsApplied       int64
	ReconcileWarnings  int64

	// Delivery (absorbed from notify at session completion)
	SnapshotsEmitted   int64
	SnapshotsDelivered int64
	SnapshotsCoalesced int64

	// Dimensions (informational, set at construction)
	ConversationID string
	MessageID      string
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe,
// so callers without a metrics surface can pass a nil collector.
type Collector struct {
	mu sync.Mutex

	sessionsStarted   int64
	sessionsCompleted int64
	sessionsFailed    int64
	sessionsCancelled int64

	chunksReceived int64
	bytesReceived  int64
	eventsDecoded  int64
	eventsByKind   map[string]int64
	decodeErrors   int64

	blocksExtracted    int64
	extractionFailures int64
	artifactsSurfaced  int64
	artifactUpdates    int64
	editsApplied       int64
	reconcileWarnings  int64

	snapshotsEmitted   int64
	snapshotsDelivered int64
	snapshotsCoalesced int64

	conversationID string
	messageID      string
}

// NewCollector creates a Collector with session dimension labels.
func NewCollector(conversationID, messageID string) *Collector {
	return &Collector{
		eventsByKind:   make(map[string]int64),
		conversationID: conversationID,
		messageID:      messageID,
	}
}

// --- Session lifecycle ---

// IncSessionStarted records a session start.
func (c *Collector) IncSessionStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsStarted++
	c.mu.Unlock()
}

// IncSessionCompleted records a clean session completion.
func (c *Collector) IncSessionCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCompleted++
	c.mu.Unlock()
}

// IncSessionFailed records a session failure (transport or assistant error).
func (c *Collector) IncSessionFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsFailed++
	c.mu.Unlock()
}

// IncSessionCancelled records a user cancellation.
func (c *Collector) IncSessionCancelled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCancelled++
	c.mu.Unlock()
}

// --- Wire ---

// AddChunk records one received transport chunk of the given size.
func (c *Collector) AddChunk(bytes int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksReceived++
	c.bytesReceived += int64(bytes)
	c.mu.Unlock()
}

// IncEventDecoded records one decoded event by kind label.
func (c *Collector) IncEventDecoded(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsDecoded++
	c.eventsByKind[kind]++
	c.mu.Unlock()
}

// IncDecodeError records one undecodable record.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
}

// --- Extraction / reconciliation ---

// AddBlocksExtracted records n successfully extracted blocks.
func (c *Collector) AddBlocksExtracted(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.blocksExtracted += int64(n)
	c.mu.Unlock()
}

// AddExtractionFailures records n closed-but-malformed blocks.
func (c *Collector) AddExtractionFailures(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.extractionFailures += int64(n)
	c.mu.Unlock()
}

// IncArtifactSurfaced records a newly surfaced artifact.
func (c *Collector) IncArtifactSurfaced() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.artifactsSurfaced++
	c.mu.Unlock()
}

// IncArtifactUpdate records an in-place content update.
func (c *Collector) IncArtifactUpdate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.artifactUpdates++
	c.mu.Unlock()
}

// IncEditApplied records a successfully applied edit instruction.
func (c *Collector) IncEditApplied() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.editsApplied++
	c.mu.Unlock()
}

// IncReconcileWarning records a soft reconciliation warning.
func (c *Collector) IncReconcileWarning() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.reconcileWarnings++
	c.mu.Unlock()
}

// IncSnapshotEmitted records one snapshot handed to the deliverer.
func (c *Collector) IncSnapshotEmitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.snapshotsEmitted++
	c.mu.Unlock()
}

// AbsorbDeliveryStats sets delivery counters from the deliverer's stats at
// session completion.
func (c *Collector) AbsorbDeliveryStats(delivered, coalesced int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.snapshotsDelivered = delivered
	c.snapshotsCoalesced = coalesced
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{EventsByKind: map[string]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.eventsByKind))
	for k, v := range c.eventsByKind {
		byKind[k] = v
	}

	return Snapshot{
		SessionsStarted:   c.sessionsStarted,
		SessionsCompleted: c.sessionsCompleted,
		SessionsFailed:    c.sessionsFailed,
		SessionsCancelled: c.sessionsCancelled,

		ChunksReceived: c.chunksReceived,
		BytesReceived:  c.bytesReceived,
		EventsDecoded:  c.eventsDecoded,
		EventsByKind:   byKind,
		DecodeErrors:   c.decodeErrors,

		BlocksExtracted:    c.blocksExtracted,
		ExtractionFailures: c.extractionFailures,
		ArtifactsSurfaced:  c.artifactsSurfaced,
		ArtifactUpdates:    c.artifactUpdates,
		EditsApplied:       c.editsApplied,
		ReconcileWarnings:  c.reconcileWarnings,

		SnapshotsEmitted:   c.snapshotsEmitted,
		SnapshotsDelivered: c.snapshotsDelivered,
		SnapshotsCoalesced: c.snapshotsCoalesced,

		ConversationID: c.conversationID,
		MessageID:      c.messageID,
	}
}
