// Package wire implements NDJSON stream framing and event decoding.
//
// The assistant stream is newline-delimited JSON: one record per line,
// shape {"t": <discriminator>, "v": <payload>}. Transport chunk boundaries
// are arbitrary and may split a record at any byte offset, so framing and
// decoding are separate stages: the Framer yields complete records, the
// decoder turns each record into exactly one typed event.
package wire

import "strings"

// Framer splits an incoming fragment stream into complete newline-terminated
// records, buffering a trailing unterminated fragment across pushes.
//
// Not safe for concurrent use; the session controller owns one Framer per
// stream and drives it from a single read loop.
type Framer struct {
	// pending is the unterminated tail of the last fragment.
	pending strings.Builder
}

// NewFramer creates an empty framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Push appends a raw fragment and returns the records completed by it,
// in order. A record is complete when its terminating newline has arrived;
// the terminator is stripped, as is an optional preceding carriage return.
//
// Empty fragments and fragments with no newline complete nothing.
// No record is ever returned twice and no partial record is ever returned.
func (f *Framer) Push(fragment string) []string {
	if fragment == "" {
		return nil
	}

	f.pending.WriteString(fragment)
	buffered := f.pending.String()

	last := strings.LastIndexByte(buffered, '\n')
	if last < 0 {
		return nil
	}

	records := strings.Split(buffered[:last], "\n")
	for i, r := range records {
		records[i] = strings.TrimSuffix(r, "\r")
	}

	f.pending.Reset()
	f.pending.WriteString(buffered[last+1:])
	return records
}

// Flush returns any remaining buffered text as one final implicit record.
// Called once at stream end; a stream whose last record lacks a trailing
// newline still yields that record. Returns false if nothing is buffered.
func (f *Framer) Flush() (string, bool) {
	buffered := f.pending.String()
	f.pending.Reset()
	if buffered == "" {
		return "", false
	}
	return strings.TrimSuffix(buffered, "\r"), true
}

// Reset discards any buffered fragment.
func (f *Framer) Reset() {
	f.pending.Reset()
}
