package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dictumlabs/dictum/iox"
	"github.com/dictumlabs/dictum/types"
)

// Transport opens the byte stream for one assistant response. The core
// treats it as an opaque ordered chunk source; chunk boundaries are
// arbitrary and never assumed to align with record boundaries.
type Transport interface {
	Open(ctx context.Context, meta types.SessionMeta) (io.ReadCloser, error)
}

// DefaultConnectTimeout bounds the time to the first response byte.
// The body read itself is unbounded: responses stream for as long as the
// assistant generates.
const DefaultConnectTimeout = 30 * time.Second

// HTTPTransport opens the stream via a long-lived POST whose response body
// delivers NDJSON records.
type HTTPTransport struct {
	// Endpoint is the stream URL (required).
	Endpoint string
	// Headers are custom HTTP headers added to the request.
	Headers map[string]string
	// ConnectTimeout bounds connection + response headers (default 30s).
	ConnectTimeout time.Duration
	// Client overrides the HTTP client. Must not set Client.Timeout:
	// that would cap total body read time and kill long streams.
	Client *http.Client
}

// StatusError is returned when the stream endpoint answers non-2xx.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// streamRequest is the POST body opening a response stream.
type streamRequest struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// Open issues the POST and returns the response body for reading.
// The caller owns the body and must close it; closing it is also how
// cancellation aborts the read.
func (t *HTTPTransport) Open(ctx context.Context, meta types.SessionMeta) (io.ReadCloser, error) {
	if t.Endpoint == "" {
		return nil, fmt.Errorf("transport: endpoint not configured")
	}

	body, err := json.Marshal(streamRequest{
		ConversationID: meta.ConversationID,
		MessageID:      meta.MessageID,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	client := t.Client
	if client == nil {
		timeout := t.ConnectTimeout
		if timeout <= 0 {
			timeout = DefaultConnectTimeout
		}
		client = &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: timeout},
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: open stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		iox.DiscardClose(resp.Body)
		return nil, fmt.Errorf("transport: %w", &StatusError{Code: resp.StatusCode})
	}

	return resp.Body, nil
}

// ReaderTransport serves a fixed reader as the stream. Used by replay and
// tests, where the "transport" is a capture file or an in-memory script.
type ReaderTransport struct {
	R io.ReadCloser
}

// Open returns the wrapped reader.
func (t *ReaderTransport) Open(_ context.Context, _ types.SessionMeta) (io.ReadCloser, error) {
	if t.R == nil {
		return nil, fmt.Errorf("transport: no reader configured")
	}
	return t.R, nil
}
