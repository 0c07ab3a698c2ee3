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

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single archived entity.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect an archived entity (message, artifacts)",
		Subcommands: []*cli.Command{
			inspectMessageCommand(),
			inspectArtifactsCommand(),
		},
	}
}

func inspectMessageCommand() *cli.Command {
	return &cli.Command{
		Name:      "message",
		Usage:     "Inspect an archived message (latest for the conversation if message-id omitted)",
		ArgsUsage: "<conversation-id> [message-id]",
		Flags:     append(TUIReadOnlyFlags(), append([]cli.Flag{ConfigFlag}, ArchiveFlags()...)...),
		Action:    inspectMessageAction,
	}
}

func inspectMessageAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("conversation-id required", 1)
	}
	conversationID := c.Args().First()
	messageID := c.Args().Get(1)

	arc, err := openArchive(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	record, err := arc.QueryLatestMessage(ctx, conversationID, messageID)
	if err != nil {
		if errors.Is(err, archive.ErrNoMessageFound) {
			return fmt.Errorf("message not found for conversation %s", conversationID)
		}
		return fmt.Errorf("failed to read message from archive: %w", err)
	}

	resp := report.FromMessageRecord(record)

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_message", resp)
	}

	return r.Render(resp)
}

func inspectArtifactsCommand() *cli.Command {
	return &cli.Command{
		Name:      "artifacts",
		Usage:     "Inspect the artifacts surfaced by an archived message",
		ArgsUsage: "<conversation-id> [message-id]",
		Flags:     append(TUIReadOnlyFlags(), append([]cli.Flag{ConfigFlag}, ArchiveFlags()...)...),
		Action:    inspectArtifactsAction,
	}
}

func inspectArtifactsAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("conversation-id required", 1)
	}
	conversationID := c.Args().First()
	messageID := c.Args().Get(1)

	arc, err := openArchive(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	records, err := arc.QueryArtifacts(ctx, conversationID, messageID)
	if err != nil {
		return fmt.Errorf("failed to read artifacts from archive: %w", err)
	}

	resp := make([]*report.ArtifactReport, 0, len(records))
	for _, record := range records {
		resp = append(resp, report.FromArtifactRecord(record))
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_artifacts", resp)
	}

	return r.Render(resp)
}
