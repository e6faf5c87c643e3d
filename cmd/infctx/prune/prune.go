// Package prunecmder provides the prune command for manual store maintenance.
package prunecmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/store"
)

const pruneLongDesc string = `Prune low-value memories.

Without flags this runs the same maintenance pass the session-end hook runs:
decay every score by the configured factor, then delete memories that fall
below the prune threshold or exceed the per-project cap.

With --older-than, delete never-accessed memories created more than that many
days ago. With --below-score, delete memories scoring under the threshold.
The two target different rows and cannot be combined; pass --dry-run with
either (or alone) to count instead of delete.

Examples:
  infctx prune
  infctx prune --dry-run
  infctx prune --older-than 90
  infctx prune --below-score 0.15 --dry-run`

const pruneShortDesc string = "Prune low-value memories"

type pruneCommander struct {
	olderThan  int
	belowScore float64
	dryRun     bool
}

func NewPruneCmd() *cobra.Command {
	cmder := &pruneCommander{}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: pruneShortDesc,
		Long:  pruneLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			olderSet := cmd.Flags().Changed("older-than")
			scoreSet := cmd.Flags().Changed("below-score")
			return cmder.run(dataDir, olderSet, scoreSet)
		},
	}

	cmd.Flags().IntVar(&cmder.olderThan, "older-than", 0, "Delete never-accessed memories older than this many days")
	cmd.Flags().Float64Var(&cmder.belowScore, "below-score", 0, "Delete memories scoring below this threshold")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Count matching memories without deleting")

	return cmd
}

func (c *pruneCommander) run(dataDir string, olderSet, scoreSet bool) error {
	if olderSet && scoreSet {
		return errors.New("--older-than and --below-score cannot be combined")
	}
	if olderSet && c.olderThan < 1 {
		return errors.New("--older-than must be at least 1 day")
	}

	mgr := dotdir.NewManager()

	dir, err := mgr.Target(dataDir)
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dbPath, err := mgr.DBPath(dataDir)
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	if c.dryRun {
		return c.preview(st, cfg, olderSet, scoreSet)
	}

	var pruned int64
	switch {
	case olderSet:
		pruned, err = st.PruneOld(c.olderThan)
	case scoreSet:
		pruned, err = st.PruneBelowScore(c.belowScore)
	default:
		pruned, err = st.DecayAndPrune(cfg)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Pruned %d memories\n\n", cliui.SuccessMark, pruned)
	return nil
}

// preview counts what a real run would delete. The default path counts against
// the configured threshold only; the decay step itself is not simulated, so
// the live run can prune slightly more.
func (c *pruneCommander) preview(st *store.Store, cfg *config.Config, olderSet, scoreSet bool) error {
	var (
		n   int
		err error
	)
	switch {
	case olderSet:
		n, err = st.CountOld(c.olderThan)
	case scoreSet:
		n, err = st.CountBelowScore(c.belowScore)
	default:
		n, err = st.CountBelowScore(cfg.PruneThreshold)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Would prune %d memories\n\n", cliui.DimStyle.Render("●"), n)
	return nil
}
