package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dictumlabs/dictum/session"
	"github.com/dictumlabs/dictum/types"
)

// StreamCommand returns the stream command.
// This is the live ingestion entrypoint: it opens the stream endpoint,
// drives the session to a terminal state, and fans the result out.
func StreamCommand() *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Stream an assistant response from the endpoint",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "conversation-id",
				Usage:    "Conversation ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "message-id",
				Usage:    "Assistant message ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Stream endpoint URL",
			},
			&cli.StringSliceFlag{
				Name:    "header",
				Aliases: []string{"H"},
				Usage:   "Custom request header \"Name: value\" (repeatable)",
			},
			&cli.DurationFlag{
				Name:  "connect-timeout",
				Usage: "Connection establishment timeout",
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
				Name:  "capture",
				Usage: "Directory to write a raw stream capture into",
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
		Action: streamAction,
	}
}

func streamAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	meta := types.SessionMeta{
		ConversationID: c.String("conversation-id"),
		MessageID:      c.String("message-id"),
	}

	endpoint := stringOr(c, "endpoint", cfg.Endpoint.URL)
	if endpoint == "" {
		return cli.Exit("--endpoint is required (or set endpoint.url in the config file)", 1)
	}

	headers, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return err
	}
	// Flag headers extend config headers; same-name flags win.
	if len(cfg.Endpoint.Headers) > 0 {
		merged := make(map[string]string, len(cfg.Endpoint.Headers)+len(headers))
		for k, v := range cfg.Endpoint.Headers {
			merged[k] = v
		}
		for k, v := range headers {
			merged[k] = v
		}
		headers = merged
	}

	connectTimeout := cfg.Endpoint.ConnectTimeout.Duration
	if c.IsSet("connect-timeout") {
		connectTimeout = c.Duration("connect-timeout")
	}

	transport := &session.HTTPTransport{
		Endpoint:       endpoint,
		Headers:        headers,
		ConnectTimeout: connectTimeout,
	}

	if err := runPipeline(c, cfg, meta, transport, time.Now()); err != nil {
		if _, ok := err.(cli.ExitCoder); ok {
			return err
		}
		return fmt.Errorf("stream failed: %w", err)
	}
	return nil
}
