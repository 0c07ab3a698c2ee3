package notify

import "github.com/dictumlabs/dictum/types"

// ImmediateDeliverer forwards every snapshot synchronously, unbuffered.
// The session's read loop blocks on sink latency, which keeps event
// ordering trivially observable. This is the default deliverer.
type ImmediateDeliverer struct {
	sink  Sink
	stats Stats
}

// NewImmediate creates an immediate deliverer writing to the given sink.
func NewImmediate(sink Sink) *ImmediateDeliverer {
	return &ImmediateDeliverer{sink: sink}
}

// Deliver forwards the snapshot to the sink.
func (d *ImmediateDeliverer) Deliver(snap *types.Snapshot) {
	d.stats.SnapshotsReceived++
	d.sink.OnSnapshot(snap)
	d.stats.SnapshotsDelivered++
}

// Flush is a no-op: nothing is withheld.
func (d *ImmediateDeliverer) Flush() {
	d.stats.FlushCount++
}

// Stats returns a copy of the delivery counters.
func (d *ImmediateDeliverer) Stats() Stats {
	return d.stats
}
