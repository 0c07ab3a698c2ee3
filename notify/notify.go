// Package notify controls how per-chunk session snapshots reach the
// rendering sink.
//
// The session controller emits one snapshot per processed chunk. Renderers
// differ in how much of that they want: a debug surface consumes every
// snapshot, while a mobile view throttles redraws. A Deliverer encapsulates
// that choice without the controller knowing which is in play.
package notify

import "github.com/dictumlabs/dictum/types"

// Sink is the rendering-facing consumer of session snapshots. It issues no
// calls back into the streaming core; cancellation goes through the
// session controller.
type Sink interface {
	OnSnapshot(snap *types.Snapshot)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(snap *types.Snapshot)

// OnSnapshot calls f(snap).
func (f SinkFunc) OnSnapshot(snap *types.Snapshot) { f(snap) }

// Deliverer forwards snapshots to a sink under a delivery policy.
//
// Deliver is called once per emitted snapshot, in order, from the session's
// read loop. Flush is called on session termination; after Flush the sink
// has seen a snapshot at least as new as every snapshot delivered.
type Deliverer interface {
	Deliver(snap *types.Snapshot)
	Flush()
	Stats() Stats
}

// Stats reports deliverer observability counters.
type Stats struct {
	// SnapshotsReceived is the number of snapshots handed to Deliver.
	SnapshotsReceived int64
	// SnapshotsDelivered is the number forwarded to the sink.
	SnapshotsDelivered int64
	// SnapshotsCoalesced is the number superseded before delivery.
	SnapshotsCoalesced int64
	// FlushCount is the number of Flush calls.
	FlushCount int64
}
