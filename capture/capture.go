package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dictumlabs/dictum/types"
)

// Writer appends capture frames to an underlying stream. Safe for use as
// a session chunk observer; writes are serialized internally.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	start   time.Time
	chunks  int64
	sealed  bool
	prevErr error
}

// NewWriter starts a capture on w by writing the header frame. If w also
// implements io.Closer it is closed by Close.
func NewWriter(w io.Writer, meta types.SessionMeta) (*Writer, error) {
	cw := &Writer{w: w, start: time.Now()}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}

	err := writeFrame(w, &HeaderFrame{
		Type:           HeaderType,
		ConversationID: meta.ConversationID,
		MessageID:      meta.MessageID,
		StartedAt:      nowMillis(),
		Tool:           "dictum/" + types.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: write header: %w", err)
	}
	return cw, nil
}

// Create opens path for writing and starts a capture on it.
func Create(path string, meta types.SessionMeta) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("capture: create %s: %w", path, err)
	}
	cw, err := NewWriter(f, meta)
	if err != nil {
		f.Close()
		return nil, err
	}
	return cw, nil
}

// Record appends one chunk frame. Intended to be installed as the session
// controller's chunk observer. Errors are sticky: after the first write
// failure subsequent chunks are dropped and Close reports the error.
func (cw *Writer) Record(seq int64, data []byte) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.sealed || cw.prevErr != nil {
		return
	}

	err := writeFrame(cw.w, &ChunkFrame{
		Type:         ChunkType,
		Seq:          seq,
		OffsetMillis: time.Since(cw.start).Milliseconds(),
		Data:         data,
	})
	if err != nil {
		cw.prevErr = err
		return
	}
	cw.chunks++
}

// Seal writes the trailer frame with the session outcome. Recording stops
// after sealing; Close may still be called.
func (cw *Writer) Seal(state types.SessionState, eventCount int64) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.sealed {
		return nil
	}
	cw.sealed = true

	if cw.prevErr != nil {
		return cw.prevErr
	}
	return writeFrame(cw.w, &TrailerFrame{
		Type:       TrailerType,
		State:      string(state),
		EventCount: eventCount,
		ChunkCount: cw.chunks,
	})
}

// Close releases the underlying stream and reports any sticky write error.
func (cw *Writer) Close() error {
	cw.mu.Lock()
	err := cw.prevErr
	closer := cw.closer
	cw.closer = nil
	cw.mu.Unlock()

	if closer != nil {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Capture is a fully read capture file.
type Capture struct {
	Header HeaderFrame
	Chunks []ChunkFrame
	// Trailer is nil when the capture was cut off before sealing.
	Trailer *TrailerFrame
	// Truncated is true when the capture ends mid-frame. Chunks holds
	// everything read before the cut.
	Truncated bool
}

// Meta returns the session identity recorded in the header.
func (c *Capture) Meta() types.SessionMeta {
	return types.SessionMeta{
		ConversationID: c.Header.ConversationID,
		MessageID:      c.Header.MessageID,
	}
}

// Read parses a complete capture from r. A capture missing its trailer,
// or cut off mid-frame, is returned with Truncated or a nil Trailer
// rather than an error: partial captures replay up to the cut.
func Read(r io.Reader) (*Capture, error) {
	dec := NewFrameDecoder(r)

	payload, err := dec.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("capture: read header: %w", err)
	}
	frame, err := DecodeFrame(payload)
	if err != nil {
		return nil, fmt.Errorf("capture: decode header: %w", err)
	}
	header, ok := frame.(*HeaderFrame)
	if !ok {
		return nil, errors.New("capture: first frame is not a header")
	}

	rec := &Capture{Header: *header}
	for {
		payload, err := dec.ReadFrame()
		if errors.Is(err, io.EOF) {
			return rec, nil
		}
		if err != nil {
			if IsTruncated(err) {
				rec.Truncated = true
				return rec, nil
			}
			return nil, err
		}

		frame, err := DecodeFrame(payload)
		if err != nil {
			return nil, err
		}
		switch f := frame.(type) {
		case *ChunkFrame:
			rec.Chunks = append(rec.Chunks, *f)
		case *TrailerFrame:
			rec.Trailer = f
		case *HeaderFrame:
			return nil, errors.New("capture: unexpected second header")
		}
	}
}

// Open reads a capture file from disk.
func Open(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// replayReader serves capture chunks one per Read call, reproducing the
// original transport chunk boundaries.
type replayReader struct {
	chunks []ChunkFrame
	pos    int
	// carry holds the remainder of a chunk larger than the caller's buffer.
	carry []byte
	// timed replays sleep out the recorded inter-chunk gaps.
	timed      bool
	prevOffset int64
	closed     bool
}

// Replay returns an io.ReadCloser that serves the capture's chunks with
// their original boundaries. Each Read returns at most one chunk.
func (c *Capture) Replay() io.ReadCloser {
	return &replayReader{chunks: c.Chunks}
}

// ReplayTimed is Replay with the recorded inter-chunk timing reproduced:
// each Read sleeps the gap between the previous chunk's offset and this
// one's before returning.
func (c *Capture) ReplayTimed() io.ReadCloser {
	return &replayReader{chunks: c.Chunks, timed: true}
}

func (r *replayReader) Read(p []byte) (int, error) {
	if r.closed {
		// A closed replay must not look like a clean end of stream.
		return 0, os.ErrClosed
	}
	if len(r.carry) > 0 {
		n := copy(p, r.carry)
		r.carry = r.carry[n:]
		return n, nil
	}
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	chunk := r.chunks[r.pos]
	r.pos++
	if r.timed {
		if gap := chunk.OffsetMillis - r.prevOffset; gap > 0 {
			time.Sleep(time.Duration(gap) * time.Millisecond)
		}
		r.prevOffset = chunk.OffsetMillis
	}
	n := copy(p, chunk.Data)
	if n < len(chunk.Data) {
		r.carry = chunk.Data[n:]
	}
	return n, nil
}

func (r *replayReader) Close() error {
	r.closed = true
	r.carry = nil
	return nil
}
