// Package capture records raw transport chunks to durable capture files
// and replays them later, preserving the exact chunk boundaries of the
// original stream. Captures are sequences of length-prefixed msgpack
// frames: a header frame, one frame per transport chunk, and a trailer
// frame written when the session terminates.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// Frame type discriminants.
const (
	HeaderType  = "header"
	ChunkType   = "chunk"
	TrailerType = "trailer"
)

// HeaderFrame opens a capture file.
type HeaderFrame struct {
	Type           string `msgpack:"type"`
	ConversationID string `msgpack:"conversation_id"`
	MessageID      string `msgpack:"message_id"`
	StartedAt      int64  `msgpack:"started_at"`
	// Tool is the version string of the writer.
	Tool string `msgpack:"tool"`
}

// ChunkFrame records one raw transport chunk.
type ChunkFrame struct {
	Type string `msgpack:"type"`
	// Seq is the 1-based chunk sequence number.
	Seq int64 `msgpack:"seq"`
	// OffsetMillis is the elapsed time since capture start.
	OffsetMillis int64  `msgpack:"offset_millis"`
	Data         []byte `msgpack:"data"`
}

// TrailerFrame closes a capture with the session outcome.
type TrailerFrame struct {
	Type       string `msgpack:"type"`
	State      string `msgpack:"state"`
	EventCount int64  `msgpack:"event_count"`
	ChunkCount int64  `msgpack:"chunk_count"`
}

// FrameErrorKind classifies frame decoding errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
)

// FrameError represents a frame encoding or decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsTruncated returns true if the error marks a capture cut off mid-frame.
// A truncated capture is still replayable up to the cut.
func IsTruncated(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.Kind == FrameErrorPartial
	}
	return false
}

// FrameDecoder decodes length-prefixed msgpack frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: r}
}

// ReadFrame reads a single frame and returns the raw msgpack payload.
//
// Errors:
//   - io.EOF: stream ended cleanly between frames
//   - *FrameError with Kind=FrameErrorPartial: capture cut off mid-frame
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])

	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	_, err = io.ReadFull(d.reader, payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return payload, nil
}

// frameTypeProbe peeks at the type field without a full decode.
type frameTypeProbe struct {
	Type string `msgpack:"type"`
}

// DecodeFrame decodes a payload into one of *HeaderFrame, *ChunkFrame,
// or *TrailerFrame, discriminating on the type field.
func DecodeFrame(payload []byte) (any, error) {
	var probe frameTypeProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode frame type",
			Err:  err,
		}
	}

	switch probe.Type {
	case HeaderType:
		var h HeaderFrame
		if err := msgpack.Unmarshal(payload, &h); err != nil {
			return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode header frame", Err: err}
		}
		return &h, nil
	case ChunkType:
		var c ChunkFrame
		if err := msgpack.Unmarshal(payload, &c); err != nil {
			return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode chunk frame", Err: err}
		}
		return &c, nil
	case TrailerType:
		var t TrailerFrame
		if err := msgpack.Unmarshal(payload, &t); err != nil {
			return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode trailer frame", Err: err}
		}
		return &t, nil
	default:
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("unknown frame type %q", probe.Type),
		}
	}
}

// writeFrame encodes v and writes it as one length-prefixed frame.
func writeFrame(w io.Writer, v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return &FrameError{Kind: FrameErrorDecode, Msg: "failed to encode frame", Err: err}
	}
	if len(payload) > MaxPayloadSize {
		return &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := w.Write(lengthBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func nowMillis() int64 { return time.Now().UnixMilli() }
