// Package phase tracks the assistant's reported activity for one in-flight
// response.
//
// Status events are applied through a monotonic precedence rule: once a
// higher-precedence phase has been observed during the response, a status
// event carrying a lower-precedence phase is ignored. This is the agreed
// fix for UI flicker where a late, out-of-band status (tool calls overlap
// with planning) would visually regress the message from "planning" back
// to "searching".
//
// Delta events behave differently: reasoning, plan, and content deltas
// prove what the assistant is doing right now, so they set the phase
// unconditionally. The precedence high-water mark still only ratchets up.
package phase

import "github.com/dictumlabs/dictum/types"

// precedence is the explicit total-order table for status upgrades.
// Deliberately a lookup table rather than iota comparison so the contract
// is self-documenting and testable independent of declaration order.
var precedence = map[types.Phase]int{
	types.PhaseNone:      0,
	types.PhaseThinking:  1,
	types.PhaseSearching: 2,
	types.PhaseUsingTool: 3,
	types.PhasePlanning:  4,
	types.PhaseAnswering: 5,
}

// Tracker maintains the current phase for one streaming response.
// Created at PhaseNone when the response starts; discarded with the
// session. Not safe for concurrent use.
type Tracker struct {
	current types.Phase
	// highWater is the highest-precedence phase observed so far.
	// Status events below it are ignored.
	highWater types.Phase
}

// NewTracker creates a tracker with no phase observed.
func NewTracker() *Tracker {
	return &Tracker{current: types.PhaseNone, highWater: types.PhaseNone}
}

// Current returns the current phase.
func (t *Tracker) Current() types.Phase {
	return t.current
}

// Observe consumes one stream event. Returns the new phase and true when
// the event changed the current phase; otherwise the current phase and
// false. Error, context, and decode-error events never affect phase.
func (t *Tracker) Observe(ev types.Event) (types.Phase, bool) {
	switch e := ev.(type) {
	case types.ReasoningDelta:
		return t.force(types.PhaseThinking)
	case types.PlanDelta:
		return t.force(types.PhasePlanning)
	case types.ContentDelta:
		return t.force(types.PhaseAnswering)
	case types.StatusUpdate:
		return t.status(e.Phase)
	default:
		return t.current, false
	}
}

// force sets the phase unconditionally, ratcheting the high-water mark.
func (t *Tracker) force(p types.Phase) (types.Phase, bool) {
	if precedence[p] > precedence[t.highWater] {
		t.highWater = p
	}
	if t.current == p {
		return t.current, false
	}
	t.current = p
	return t.current, true
}

// status applies an explicit status report through the precedence rule.
func (t *Tracker) status(p types.Phase) (types.Phase, bool) {
	if precedence[p] < precedence[t.highWater] {
		return t.current, false
	}
	t.highWater = p
	if t.current == p {
		return t.current, false
	}
	t.current = p
	return t.current, true
}

// Reset returns the tracker to the no-phase-observed state. Called exactly
// when a new response session begins.
func (t *Tracker) Reset() {
	t.current = types.PhaseNone
	t.highWater = types.PhaseNone
}
