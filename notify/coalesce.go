package notify

import (
	"time"

	"github.com/dictumlabs/dictum/types"
)

// DefaultCoalesceInterval is the default minimum spacing between
// deliveries. Roughly two frames at 30fps, fast enough to look live.
const DefaultCoalesceInterval = 66 * time.Millisecond

// CoalescingDeliverer throttles snapshot delivery to at most one per
// interval, always keeping the newest snapshot. Because each snapshot is
// a complete view of the in-flight message, dropping a superseded one
// loses nothing: the next delivery contains everything it contained.
//
// Terminal-state snapshots bypass the throttle so completion, failure,
// and cancellation are never delayed.
//
// Single-goroutine discipline matches the session read loop: no internal
// timer, the decision is made at Deliver time against a clock.
type CoalescingDeliverer struct {
	sink     Sink
	interval time.Duration
	now      func() time.Time

	lastDelivery time.Time
	pending      *types.Snapshot
	stats        Stats
}

// NewCoalescing creates a coalescing deliverer. A non-positive interval
// falls back to DefaultCoalesceInterval.
func NewCoalescing(sink Sink, interval time.Duration) *CoalescingDeliverer {
	if interval <= 0 {
		interval = DefaultCoalesceInterval
	}
	return &CoalescingDeliverer{
		sink:     sink,
		interval: interval,
		now:      time.Now,
	}
}

// Deliver forwards the snapshot if the interval has elapsed or the
// snapshot is terminal; otherwise it supersedes the pending one.
func (d *CoalescingDeliverer) Deliver(snap *types.Snapshot) {
	d.stats.SnapshotsReceived++

	if snap.State.IsTerminal() || d.now().Sub(d.lastDelivery) >= d.interval {
		if d.pending != nil {
			d.stats.SnapshotsCoalesced++
			d.pending = nil
		}
		d.forward(snap)
		return
	}

	if d.pending != nil {
		d.stats.SnapshotsCoalesced++
	}
	d.pending = snap
}

// Flush delivers the withheld snapshot, if any.
func (d *CoalescingDeliverer) Flush() {
	d.stats.FlushCount++
	if d.pending == nil {
		return
	}
	snap := d.pending
	d.pending = nil
	d.forward(snap)
}

// Stats returns a copy of the delivery counters.
func (d *CoalescingDeliverer) Stats() Stats {
	return d.stats
}

func (d *CoalescingDeliverer) forward(snap *types.Snapshot) {
	d.sink.OnSnapshot(snap)
	d.lastDelivery = d.now()
	d.stats.SnapshotsDelivered++
}
