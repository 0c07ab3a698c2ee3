package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dictumlabs/dictum/cli/render"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ListCommand returns the list command with subcommands.
// List returns thin slices, not inspect-level detail.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List archived entities (messages)",
		Subcommands: []*cli.Command{
			listMessagesCommand(),
		},
	}
}

func listMessagesCommand() *cli.Command {
	return &cli.Command{
		Name:      "messages",
		Usage:     "List archived messages",
		ArgsUsage: "[conversation-id]",
		Flags: append(append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "state",
				Usage: "Filter by state: completed, failed, cancelled",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of messages to return (0 = no limit)",
				Value: 0,
			},
			ConfigFlag,
		), ArchiveFlags()...),
		Action: listMessagesAction,
	}
}

func listMessagesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	arc, err := openArchive(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	results, err := arc.ListMessages(ctx, c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	if state := c.String("state"); state != "" {
		filtered := results[:0]
		for _, m := range results {
			if m.State == state {
				filtered = append(filtered, m)
			}
		}
		results = filtered
	}

	limit := c.Int("limit")
	if limit > 0 && len(results) > limit {
		// Keep the newest entries; ListMessages returns newest last.
		results = results[len(results)-limit:]
	}

	// Warn if output is large and --limit was not specified (TTY only to avoid noise in pipelines)
	if len(results) > listWarningThreshold && limit == 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d results. Consider using --limit to reduce output.\n\n", len(results))
	}

	return r.Render(results)
}
