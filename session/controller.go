// Package session orchestrates one in-flight assistant response end to end:
// it owns the open transport read, the accumulated text, the current phase,
// the surfaced artifact list, and cancellation.
//
// The pipeline is strictly synchronous: for each transport chunk, framing,
// decoding, phase tracking, extraction, and reconciliation run to completion
// before the next chunk is awaited. Event ordering is observable (phase
// transitions, artifact versions), so there is no internal parallelism.
// The only suspension point is the wait for the next chunk.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dictumlabs/dictum/artifact"
	"github.com/dictumlabs/dictum/extract"
	"github.com/dictumlabs/dictum/iox"
	"github.com/dictumlabs/dictum/log"
	"github.com/dictumlabs/dictum/metrics"
	"github.com/dictumlabs/dictum/notify"
	"github.com/dictumlabs/dictum/phase"
	"github.com/dictumlabs/dictum/types"
	"github.com/dictumlabs/dictum/wire"
)

// DefaultReadBufferSize is the transport read buffer size.
const DefaultReadBufferSize = 4096

// ErrAlreadyRun is returned when Run is called on a controller that has
// left Idle. Terminal controllers are discarded, never reused.
var ErrAlreadyRun = errors.New("session: controller already run")

// Config configures a streaming session controller.
type Config struct {
	// Meta identifies the conversation and message (required).
	Meta types.SessionMeta
	// Transport opens the stream (required).
	Transport Transport
	// Deliverer forwards snapshots to the rendering sink (required).
	Deliverer notify.Deliverer
	// Logger is the session logger. If nil, logging is discarded.
	Logger *log.Logger
	// Collector records session metrics. Nil-safe.
	Collector *metrics.Collector
	// ReadBufferSize overrides the transport read buffer size.
	ReadBufferSize int
	// ChunkObserver, when set, is called synchronously with each raw
	// transport chunk before it is processed. Used by stream capture.
	ChunkObserver func(seq int64, data []byte)
}

// Controller runs one streaming session. Create with New, drive with Run,
// abort with Cancel. A controller is single-use: once terminal it must be
// discarded and a new one created for the next message.
type Controller struct {
	cfg       Config
	logger    *log.Logger
	collector *metrics.Collector

	framer     *wire.Framer
	tracker    *phase.Tracker
	scanner    *extract.Scanner
	reconciler *artifact.Reconciler

	text      strings.Builder
	reasoning strings.Builder
	planText  strings.Builder

	plans          []types.PlanBlock
	tasks          []types.TaskBlock
	clarifications []types.ClarifyQuestion
	usage          *types.ContextUsage
	errorMessage   string

	snapSeq    int64
	chunkSeq   int64
	eventCount int64
	startTime  time.Time

	// mu guards the cross-goroutine surface: state, cancellation flag,
	// and the open body handle. Everything else is touched only by the
	// Run goroutine.
	mu        sync.Mutex
	state     types.SessionState
	cancelled bool
	body      io.ReadCloser
}

// New creates a controller in the Idle state.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Meta.Validate(); err != nil {
		return nil, err
	}
	if cfg.Transport == nil {
		return nil, errors.New("session: transport is required")
	}
	if cfg.Deliverer == nil {
		return nil, errors.New("session: deliverer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}

	return &Controller{
		cfg:        cfg,
		logger:     cfg.Logger,
		collector:  cfg.Collector,
		framer:     wire.NewFramer(),
		tracker:    phase.NewTracker(),
		scanner:    extract.NewScanner(),
		reconciler: artifact.NewReconciler(),
		state:      types.StateIdle,
	}, nil
}

// State returns the current controller state.
func (c *Controller) State() types.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cancel requests cooperative cancellation. The open transport read is
// closed, the read loop observes the failure, and the session terminates
// in Cancelled with all partial text and reconciled artifacts retained.
// Safe to call from any goroutine, idempotent, a no-op once terminal.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsTerminal() || c.cancelled {
		return
	}
	c.cancelled = true
	if c.body != nil {
		iox.DiscardClose(c.body)
	}
}

// Run executes the session to a terminal state. It always returns a
// result; the result's State and ErrorMessage describe how the session
// ended. The only error return is misuse (Run on a non-Idle controller).
func (c *Controller) Run(ctx context.Context) (*types.SessionResult, error) {
	c.mu.Lock()
	if c.state != types.StateIdle {
		c.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	c.state = types.StateConnecting
	alreadyCancelled := c.cancelled
	c.mu.Unlock()

	c.startTime = time.Now()
	c.collector.IncSessionStarted()
	c.logger.Info("session starting", nil)

	if alreadyCancelled {
		return c.finish(types.StateCancelled, ""), nil
	}

	body, err := c.cfg.Transport.Open(ctx, c.cfg.Meta)
	if err != nil {
		if c.wasCancelled() || errors.Is(err, context.Canceled) {
			return c.finish(types.StateCancelled, ""), nil
		}
		c.logger.Error("transport open failed", map[string]any{"error": err.Error()})
		return c.finish(types.StateFailed, err.Error()), nil
	}

	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		iox.DiscardClose(body)
		return c.finish(types.StateCancelled, ""), nil
	}
	c.body = body
	c.mu.Unlock()
	defer iox.DiscardClose(body)

	return c.readLoop(ctx, body), nil
}

// readLoop drives the synchronous per-chunk pipeline until the stream
// ends, fails, or is cancelled.
func (c *Controller) readLoop(ctx context.Context, body io.Reader) *types.SessionResult {
	buf := make([]byte, c.cfg.ReadBufferSize)

	for {
		select {
		case <-ctx.Done():
			return c.finish(types.StateCancelled, "")
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if fatalMsg, fatal := c.processChunk(string(buf[:n])); fatal {
				return c.finish(types.StateFailed, fatalMsg)
			}
		}
		if err != nil {
			// Cancellation wins over everything, EOF included: closing
			// the body can surface as a clean end of stream (a replay
			// source has no connection to break), and a cancelled
			// session must never terminate as Completed.
			if c.wasCancelled() || errors.Is(err, context.Canceled) {
				return c.finish(types.StateCancelled, "")
			}
			if errors.Is(err, io.EOF) {
				// Clean end of stream: the trailing unterminated fragment,
				// if any, is one last implicit record.
				if tail, ok := c.framer.Flush(); ok {
					if fatalMsg, fatal := c.processRecord(tail); fatal {
						return c.finish(types.StateFailed, fatalMsg)
					}
					c.emitSnapshot()
				}
				return c.finish(types.StateCompleted, "")
			}
			c.logger.Error("transport read failed", map[string]any{"error": err.Error()})
			return c.finish(types.StateFailed, err.Error())
		}
	}
}

// processChunk runs the full pipeline for one transport chunk and emits
// one snapshot. Returns a fatal assistant error message when the chunk
// contained a fatal error event.
func (c *Controller) processChunk(chunk string) (string, bool) {
	c.chunkSeq++
	c.collector.AddChunk(len(chunk))
	if c.cfg.ChunkObserver != nil {
		c.cfg.ChunkObserver(c.chunkSeq, []byte(chunk))
	}

	for _, record := range c.framer.Push(chunk) {
		if fatalMsg, fatal := c.processRecord(record); fatal {
			// The terminal snapshot is emitted by finish; partial text
			// accumulated before the error stays in place.
			return fatalMsg, true
		}
	}

	c.emitSnapshot()
	return "", false
}

// processRecord decodes and applies one complete record.
func (c *Controller) processRecord(record string) (string, bool) {
	ev, ok := wire.Decode(record)
	if !ok {
		return "", false
	}
	c.eventCount++

	if de, isDecodeErr := ev.(types.DecodeError); isDecodeErr {
		c.collector.IncDecodeError()
		c.logger.Warn("record decode failed", map[string]any{
			"reason": de.Reason,
			"raw":    de.Raw,
		})
		return "", false
	}

	c.collector.IncEventDecoded(string(types.KindOf(ev)))
	c.markStreaming()
	c.tracker.Observe(ev)

	switch e := ev.(type) {
	case types.ContentDelta:
		c.text.WriteString(e.Text)
		c.runExtraction()
	case types.ReasoningDelta:
		c.reasoning.WriteString(e.Text)
	case types.PlanDelta:
		c.planText.WriteString(e.Text)
	case types.StatusUpdate:
		// Phase already applied by the tracker.
	case types.ContextUpdate:
		c.usage = &types.ContextUsage{
			Usage:        e.Usage,
			InputTokens:  e.InputTokens,
			OutputTokens: e.OutputTokens,
		}
	case types.AssistantError:
		c.logger.Error("assistant reported error", map[string]any{
			"message": e.Message,
			"code":    e.Code,
		})
		return e.Message, true
	default:
		// Closed variant set: anything else is a programming error in
		// the decoder, not a recoverable wire condition.
		c.logger.Warn("unhandled event variant", map[string]any{"kind": types.KindOf(ev)})
	}

	return "", false
}

// markStreaming moves Connecting to Streaming on the first successfully
// decoded event.
func (c *Controller) markStreaming() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == types.StateConnecting {
		c.state = types.StateStreaming
		c.logger.Debug("first event decoded, streaming", nil)
	}
}

// runExtraction re-scans the accumulated text and reconciles any newly
// completed blocks.
func (c *Controller) runExtraction() {
	res := c.scanner.Scan(c.text.String())
	if res.Empty() {
		return
	}

	if res.Malformed > 0 {
		c.collector.AddExtractionFailures(res.Malformed)
		c.logger.Warn("malformed blocks skipped", map[string]any{"count": res.Malformed})
	}

	extracted := len(res.Artifacts) + len(res.Edits) + len(res.Plans) +
		len(res.Tasks) + len(res.Clarifications)
	c.collector.AddBlocksExtracted(extracted)

	for _, block := range res.Artifacts {
		switch c.reconciler.Apply(block) {
		case artifact.Surfaced:
			c.collector.IncArtifactSurfaced()
		case artifact.Updated:
			c.collector.IncArtifactUpdate()
		}
		c.logger.Debug("artifact reconciled", map[string]any{
			"title": block.Title,
			"type":  string(block.Type),
		})
	}

	for _, edit := range res.Edits {
		if c.reconciler.ApplyEdit(edit) {
			c.collector.IncEditApplied()
		} else {
			c.collector.IncReconcileWarning()
			c.logger.Warn("edit targets unknown artifact", map[string]any{
				"target": edit.TargetTitle,
			})
		}
	}

	c.plans = append(c.plans, res.Plans...)
	c.tasks = append(c.tasks, res.Tasks...)
	c.clarifications = append(c.clarifications, res.Clarifications...)
}

// emitSnapshot hands the current view to the deliverer.
func (c *Controller) emitSnapshot() {
	c.snapSeq++
	c.collector.IncSnapshotEmitted()
	c.cfg.Deliverer.Deliver(c.snapshot())
}

// snapshot builds a detached copy of the current session view.
func (c *Controller) snapshot() *types.Snapshot {
	snap := &types.Snapshot{
		Meta:           c.cfg.Meta,
		State:          c.State(),
		Seq:            c.snapSeq,
		Phase:          c.tracker.Current(),
		Text:           c.text.String(),
		ReasoningText:  c.reasoning.String(),
		PlanText:       c.planText.String(),
		Artifacts:      c.reconciler.Artifacts(),
		Plans:          append([]types.PlanBlock(nil), c.plans...),
		Tasks:          append([]types.TaskBlock(nil), c.tasks...),
		Clarifications: append([]types.ClarifyQuestion(nil), c.clarifications...),
		Warnings:       c.reconciler.Warnings(),
		ErrorMessage:   c.errorMessage,
	}
	if c.usage != nil {
		u := *c.usage
		snap.Context = &u
	}
	return snap
}

// finish transitions to a terminal state, emits the terminal snapshot,
// flushes delivery, and builds the result. Partial text and artifacts are
// retained on every path, including cancellation: the user keeps whatever
// was produced.
func (c *Controller) finish(state types.SessionState, errorMessage string) *types.SessionResult {
	c.mu.Lock()
	if c.state.IsTerminal() {
		// finish is only reached once by construction; guard anyway.
		c.mu.Unlock()
		return c.result()
	}
	c.state = state
	c.body = nil
	c.mu.Unlock()

	c.errorMessage = errorMessage
	c.framer.Reset()

	c.snapSeq++
	c.collector.IncSnapshotEmitted()
	c.cfg.Deliverer.Deliver(c.snapshot())
	c.cfg.Deliverer.Flush()

	stats := c.cfg.Deliverer.Stats()
	c.collector.AbsorbDeliveryStats(stats.SnapshotsDelivered, stats.SnapshotsCoalesced)

	switch state {
	case types.StateCompleted:
		c.collector.IncSessionCompleted()
	case types.StateCancelled:
		c.collector.IncSessionCancelled()
	case types.StateFailed:
		c.collector.IncSessionFailed()
	}

	c.logger.Info("session finished", map[string]any{
		"state":    string(state),
		"events":   c.eventCount,
		"duration": time.Since(c.startTime).String(),
	})

	return c.result()
}

// result builds the final session summary.
func (c *Controller) result() *types.SessionResult {
	return &types.SessionResult{
		Meta:           c.cfg.Meta,
		State:          c.State(),
		Phase:          c.tracker.Current(),
		Text:           c.text.String(),
		Artifacts:      c.reconciler.Artifacts(),
		Plans:          append([]types.PlanBlock(nil), c.plans...),
		Tasks:          append([]types.TaskBlock(nil), c.tasks...),
		Clarifications: append([]types.ClarifyQuestion(nil), c.clarifications...),
		Warnings:       c.reconciler.Warnings(),
		ErrorMessage:   c.errorMessage,
		EventCount:     c.eventCount,
		DurationMillis: time.Since(c.startTime).Milliseconds(),
	}
}

func (c *Controller) wasCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}
