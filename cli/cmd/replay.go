package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dictumlabs/dictum/capture"
	"github.com/dictumlabs/dictum/session"
	"github.com/dictumlabs/dictum/types"
)

// ReplayCommand returns the replay command.
// Replay re-runs a recorded stream through the full ingestion pipeline.
// Capture files replay with their original chunk boundaries; raw NDJSON
// files are chunked by the read buffer. The transport is the only
// difference from a live stream; everything downstream is identical.
func ReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay a recorded stream (capture or NDJSON file) through the ingestion pipeline",
		ArgsUsage: "<file>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "conversation-id",
				Usage: "Conversation ID (overrides capture header; required meta for NDJSON files)",
			},
			&cli.StringFlag{
				Name:  "message-id",
				Usage: "Message ID (overrides capture header; required meta for NDJSON files)",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Read buffer size for NDJSON replays (bytes)",
			},
			&cli.BoolFlag{
				Name:  "realtime",
				Usage: "Reproduce the recorded inter-chunk timing (capture files only)",
			},
			&cli.StringFlag{
				Name:  "delivery",
				Usage: "Snapshot delivery mode: immediate or coalesce",
			},
			&cli.DurationFlag{
				Name:  "coalesce-interval",
				Usage: "Minimum gap between deliveries in coalesce mode",
			},
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Completion adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint (webhook URL or redis:// URL)",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel name",
			},
			&cli.IntFlag{
				Name:  "adapter-retries",
				Usage: "Adapter retry attempts on failure",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress streamed text and result output",
			},
			ConfigFlag,
			TUIFlag,
		}, ArchiveFlags()...),
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("file required", 1)
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	isCapture, err := sniffCapture(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	var meta types.SessionMeta
	var source io.ReadCloser
	var startTime time.Time

	if isCapture {
		rec, err := capture.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open capture %s: %w", path, err)
		}
		if rec.Truncated && !c.Bool("quiet") && !c.Bool("tui") {
			fmt.Fprintf(os.Stderr, "Warning: capture %s is truncated; replaying up to the cut\n", path)
		}

		meta = rec.Meta()
		// The archive day partition follows the original session start,
		// not the replay time, so a replayed session lands beside the
		// original.
		startTime = time.UnixMilli(rec.Header.StartedAt)

		if c.Bool("realtime") {
			source = rec.ReplayTimed()
		} else {
			source = rec.Replay()
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		// NDJSON files carry no session identity; derive a default from
		// the file name.
		meta = types.SessionMeta{
			ConversationID: "replay",
			MessageID:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		}
		startTime = time.Now()
		if fi, err := f.Stat(); err == nil {
			startTime = fi.ModTime()
		}
		source = f
	}

	if v := c.String("conversation-id"); v != "" {
		meta.ConversationID = v
	}
	if v := c.String("message-id"); v != "" {
		meta.MessageID = v
	}
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("replay of %s needs session identity: %w", path, err)
	}

	transport := &session.ReaderTransport{R: source}
	return runPipeline(c, cfg, meta, transport, startTime)
}

// sniffCapture reports whether the file is a capture file. Capture frames
// open with a big-endian length prefix below MaxFrameSize, so the first
// byte is always zero; NDJSON starts with printable JSON text.
func sniffCapture(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	var b [1]byte
	if _, err := io.ReadFull(f, b[:]); err != nil {
		return false, err
	}
	return b[0] == 0, nil
}
