package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dictumlabs/dictum/adapter"
	"github.com/dictumlabs/dictum/archive"
	"github.com/dictumlabs/dictum/capture"
	"github.com/dictumlabs/dictum/cli/config"
	"github.com/dictumlabs/dictum/cli/tui"
	"github.com/dictumlabs/dictum/log"
	"github.com/dictumlabs/dictum/metrics"
	"github.com/dictumlabs/dictum/notify"
	"github.com/dictumlabs/dictum/session"
	"github.com/dictumlabs/dictum/types"
)

// Exit codes for session-running commands (stream, replay).
const (
	exitCompleted = 0
	exitFailed    = 1
	exitCancelled = 2
)

// consoleSink streams newly appended assistant text to a writer as
// snapshots arrive. Artifact and phase detail is left to the final
// summary.
type consoleSink struct {
	w       io.Writer
	written int
}

func (s *consoleSink) OnSnapshot(snap *types.Snapshot) {
	if len(snap.Text) > s.written {
		fmt.Fprint(s.w, snap.Text[s.written:])
		s.written = len(snap.Text)
	}
}

// buildDeliverer creates the snapshot deliverer from flags and config.
func buildDeliverer(c *cli.Context, cfg *config.Config, sink notify.Sink) (notify.Deliverer, error) {
	mode := stringOr(c, "delivery", cfg.Delivery.Mode)
	switch mode {
	case "", "immediate":
		return notify.NewImmediate(sink), nil
	case "coalesce":
		interval := cfg.Delivery.CoalesceInterval.Duration
		if c.IsSet("coalesce-interval") {
			interval = c.Duration("coalesce-interval")
		}
		if interval <= 0 {
			interval = notify.DefaultCoalesceInterval
		}
		return notify.NewCoalescing(sink, interval), nil
	default:
		return nil, fmt.Errorf("unsupported delivery mode: %s (must be immediate or coalesce)", mode)
	}
}

// openCaptureWriter creates a capture writer when a capture directory is
// configured. Returns nil when capture is disabled.
func openCaptureWriter(c *cli.Context, cfg *config.Config, meta types.SessionMeta) (*capture.Writer, string, error) {
	dir := stringOr(c, "capture", cfg.Capture.Dir)
	if dir == "" {
		return nil, "", nil
	}

	name := fmt.Sprintf("%s_%s_%d.dcap", meta.ConversationID, meta.MessageID, time.Now().UnixMilli())
	path := filepath.Join(dir, name)

	cw, err := capture.Create(path, meta)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create capture file: %w", err)
	}
	return cw, path, nil
}

// runPipeline drives a session over the given transport to a terminal
// state, then fans the result out to the archive and the completion
// adapter. Shared by stream (live endpoint) and replay (capture file).
func runPipeline(c *cli.Context, cfg *config.Config, meta types.SessionMeta, transport session.Transport, startTime time.Time) error {
	quiet := c.Bool("quiet")
	useTUI := c.Bool("tui")

	collector := metrics.NewCollector(meta.ConversationID, meta.MessageID)

	var live *tui.Live
	var sink notify.Sink
	switch {
	case useTUI:
		live = tui.NewLive(meta)
		sink = live.Sink()
	case quiet:
		sink = notify.SinkFunc(func(*types.Snapshot) {})
	default:
		sink = &consoleSink{w: os.Stdout}
	}

	deliverer, err := buildDeliverer(c, cfg, sink)
	if err != nil {
		return err
	}

	cw, capturePath, err := openCaptureWriter(c, cfg, meta)
	if err != nil {
		return err
	}

	logger := log.Nop()
	if !quiet && !useTUI {
		// Logs go to stderr; streamed text owns stdout.
		logger = log.NewLogger(meta)
	}

	sc := session.Config{
		Meta:      meta,
		Transport: transport,
		Deliverer: deliverer,
		Logger:    logger,
		Collector: collector,
	}
	if cw != nil {
		sc.ChunkObserver = cw.Record
	}
	if c.IsSet("chunk-size") {
		sc.ReadBufferSize = c.Int("chunk-size")
	}

	ctrl, err := session.New(sc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		ctrl.Cancel()
	}()

	var res *types.SessionResult
	if useTUI {
		resCh := make(chan *types.SessionResult, 1)
		go func() {
			r, runErr := ctrl.Run(ctx)
			if runErr != nil {
				r = &types.SessionResult{Meta: meta, State: types.StateFailed, ErrorMessage: runErr.Error()}
			}
			live.Finish(r)
			resCh <- r
		}()

		if err := live.Run(); err != nil {
			ctrl.Cancel()
		}
		// The user may quit the TUI before the stream ends; cancel and
		// wait for the terminal result either way.
		ctrl.Cancel()
		res = <-resCh
	} else {
		res, err = ctrl.Run(ctx)
		if err != nil {
			return err
		}
	}

	if cw != nil {
		if err := cw.Seal(res.State, res.EventCount); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to seal capture %s: %v\n", capturePath, err)
		}
		if err := cw.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close capture %s: %v\n", capturePath, err)
		}
	}

	if err := archiveResult(c, cfg, res, collector.Snapshot(), startTime); err != nil {
		return err
	}

	if err := publishResult(c, cfg, res); err != nil {
		return err
	}

	if !quiet && !useTUI {
		printSessionResult(res)
	}

	return cli.Exit("", stateToExitCode(res.State))
}

// archiveResult persists the finished session when an archive is
// configured. A session with no archive configured is not an error.
func archiveResult(c *cli.Context, cfg *config.Config, res *types.SessionResult, snap metrics.Snapshot, startTime time.Time) error {
	opts := resolveArchiveOptions(c, cfg)
	if !opts.configured() {
		return nil
	}

	arc, err := buildArchive(opts, archive.DeriveDay(startTime))
	if err != nil {
		return fmt.Errorf("failed to initialize archive: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := arc.WriteResult(ctx, res); err != nil {
		return fmt.Errorf("failed to archive session: %w", err)
	}
	if err := arc.WriteMetrics(ctx, snap); err != nil {
		return fmt.Errorf("failed to archive metrics: %w", err)
	}
	return nil
}

// publishResult notifies the completion adapter when one is configured.
func publishResult(c *cli.Context, cfg *config.Config, res *types.SessionResult) error {
	a, err := buildAdapter(c, cfg)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := a.Publish(ctx, adapter.FromResult(res)); err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}
	return nil
}

func stateToExitCode(state types.SessionState) int {
	switch state {
	case types.StateCompleted:
		return exitCompleted
	case types.StateCancelled:
		return exitCancelled
	default:
		return exitFailed
	}
}

func printSessionResult(res *types.SessionResult) {
	fmt.Printf("\n\n=== Session Result ===\n")
	fmt.Printf("Conversation: %s\n", res.Meta.ConversationID)
	fmt.Printf("Message:      %s\n", res.Meta.MessageID)
	fmt.Printf("State:        %s\n", res.State)
	fmt.Printf("Phase:        %s\n", res.Phase)
	fmt.Printf("Events:       %d\n", res.EventCount)
	fmt.Printf("Duration:     %s\n", (time.Duration(res.DurationMillis) * time.Millisecond).Round(time.Millisecond))
	if res.ErrorMessage != "" {
		fmt.Printf("Error:        %s\n", res.ErrorMessage)
	}

	if len(res.Artifacts) > 0 {
		fmt.Printf("\n=== Artifacts ===\n")
		for _, art := range res.Artifacts {
			fmt.Printf("  - %s v%d (%s)\n", art.Title, art.Version, art.Type)
		}
	}

	if len(res.Warnings) > 0 {
		fmt.Printf("\n=== Warnings ===\n")
		for _, w := range res.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}
