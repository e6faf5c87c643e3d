// Package backfillcmder provides the backfill command for archiving memories
// from historical transcripts.
package backfillcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/backfill"
	"github.com/infinitecontext/infctx/pkg/cliui"
)

const backfillLongDesc string = `Archive memories from historical transcripts.

Walks the host's transcript directory and runs rule-based extraction over
every conversation recorded before infinite-context was installed. Files
already archived up to their last line are skipped, so backfill is safe to
re-run at any time.

Examples:
  infctx backfill
  infctx backfill --dry-run --verbose
  infctx backfill --project /home/dev/billing
  infctx backfill --transcripts /mnt/backup/projects`

const backfillShortDesc string = "Archive memories from historical transcripts"

type backfillCommander struct {
	transcriptDir string
	project       string
	dryRun        bool
	verbose       bool
	workers       int
}

func NewBackfillCmd() *cobra.Command {
	cmder := &backfillCommander{}

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: backfillShortDesc,
		Long:  backfillLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return cmder.run(cmd.Context(), dataDir)
		},
	}

	cmd.Flags().StringVar(&cmder.transcriptDir, "transcripts", "", "Override the transcript directory")
	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Backfill only this project's transcripts")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Preview what would be archived without writing")
	cmd.Flags().BoolVarP(&cmder.verbose, "verbose", "v", false, "Show per-file archive details")
	cmd.Flags().IntVar(&cmder.workers, "workers", 0, "Concurrent archive workers (default 3)")

	return cmd
}

func (c *backfillCommander) run(ctx context.Context, dataDir string) error {
	transcriptDir := c.resolveTranscriptDir()

	if c.dryRun {
		fmt.Printf("  %s Dry run mode — no changes will be written\n\n", cliui.DimStyle.Render("●"))
	}

	if c.verbose {
		fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("Transcripts:"), cliui.DimStyle.Render(transcriptDir))
	}

	var result *backfill.Result
	if err := cliui.Step(os.Stdout, "Archiving transcript history", func() error {
		opts := backfill.Options{
			DryRun:  c.dryRun,
			Verbose: c.verbose,
			Project: c.project,
			Workers: c.workers,
		}

		b, cleanup, err := backfill.NewBackfiller(dataDir, opts)
		if err != nil {
			return err
		}
		defer func() { _ = cleanup() }()

		var runErr error
		result, runErr = b.Run(ctx, transcriptDir)
		return runErr
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n\n", cliui.SuccessMark, result.Summary())
	return nil
}

func (c *backfillCommander) resolveTranscriptDir() string {
	if strings.TrimSpace(c.transcriptDir) != "" {
		return c.transcriptDir
	}
	return backfill.DefaultTranscriptDir()
}
