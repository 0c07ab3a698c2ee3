package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dictumlabs/dictum/archive"
	"github.com/dictumlabs/dictum/cli/render"
	"github.com/dictumlabs/dictum/cli/report"
)

// StatsCommand returns the stats command with subcommands.
// Stats returns aggregated, derived facts from the archive.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show archived statistics (metrics)",
		Subcommands: []*cli.Command{
			statsMessagesCommand(),
			statsMetricsCommand(),
		},
	}
}

// MessagesStatsResponse aggregates archived messages for stats output.
type MessagesStatsResponse struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
	Artifacts int64 `json:"artifacts"`
	Events    int64 `json:"events"`
}

func statsMessagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "messages",
		Usage: "Show aggregate statistics over archived messages",
		Flags: append(append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "conversation-id",
				Usage: "Filter by conversation ID",
			},
			ConfigFlag,
		), ArchiveFlags()...),
		Action: statsMessagesAction,
	}
}

func statsMessagesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for stats messages", 1)
	}

	arc, err := openArchive(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	messages, err := arc.ListMessages(ctx, c.String("conversation-id"))
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	var resp MessagesStatsResponse
	for _, m := range messages {
		resp.Total++
		switch m.State {
		case "completed":
			resp.Completed++
		case "failed":
			resp.Failed++
		case "cancelled":
			resp.Cancelled++
		}
		resp.Artifacts += m.ArtifactCount
		resp.Events += m.EventCount
	}

	return r.Render(resp)
}

func statsMetricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Show ingestion metrics for an archived session",
		Flags: append(append(TUIReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "conversation-id",
				Usage: "Filter by conversation ID",
			},
			&cli.StringFlag{
				Name:  "message-id",
				Usage: "Read metrics for a specific message ID",
			},
			ConfigFlag,
		), ArchiveFlags()...),
		Action: statsMetricsAction,
	}
}

func statsMetricsAction(c *cli.Context) error {
	arc, err := openArchive(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	record, err := arc.QueryLatestMetrics(ctx, c.String("conversation-id"), c.String("message-id"))
	if err != nil {
		if errors.Is(err, archive.ErrNoMetricsFound) {
			return fmt.Errorf("no metrics records found in archive")
		}
		return fmt.Errorf("failed to read metrics from archive: %w", err)
	}

	resp := report.FromMetricsRecord(record)

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("stats_metrics", resp)
	}

	return r.Render(resp)
}
