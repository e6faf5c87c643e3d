// Package browsecmder provides the browse command, a terminal UI over the
// memory store.
package browsecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/store"
)

const browseLongDesc string = `Browse archived memories interactively.

Opens a full-screen list of everything the store remembers. Move with j/k,
press enter to read a memory in full, / to filter as you type, s to cycle
the sort column, c to cycle category filters, and d to delete the selected
memory (with confirmation).

Examples:
  infctx browse
  infctx browse --project /home/dev/billing
`

const browseShortDesc string = "Browse memories in a terminal UI"

type browseCommander struct {
	project string
}

func NewBrowseCmd() *cobra.Command {
	cmder := &browseCommander{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: browseShortDesc,
		Long:  browseLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return cmder.run(cmd.Context(), dataDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Restrict the listing to one project path")

	return cmd
}

func (c *browseCommander) run(ctx context.Context, dataDir string) error {
	dbPath, err := dotdir.NewManager().DBPath(dataDir)
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	return runBrowseTUI(ctx, st, c.project)
}
