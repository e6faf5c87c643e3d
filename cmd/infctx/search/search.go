// Package searchcmder provides the search command for full-text search over
// archived memories.
package searchcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/store"
	"github.com/infinitecontext/infctx/pkg/utils"
)

const searchLongDesc string = `Search archived memories.

Runs a full-text query over memory content and keywords, best match first.
The query is every positional argument joined together; flags never leak
into it. Use --project to restrict results to one project path.

Examples:
  infctx search stripe retry backoff
  infctx search postgres migration --project /home/dev/billing
  infctx search "connection refused" --limit 20`

const searchShortDesc string = "Search archived memories"

type searchCommander struct {
	project string
	limit   int
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <keywords...>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return cmder.run(strings.Join(args, " "), dataDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Restrict results to one project path")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 10, "Maximum number of results")

	return cmd
}

func (c *searchCommander) run(query, dataDir string) error {
	dbPath, err := dotdir.NewManager().DBPath(dataDir)
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	results, err := st.Search(query, c.project, c.limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("\n  %s No matching memories.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Results for:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%q", query)),
	)

	for i, m := range results {
		content := strings.ReplaceAll(utils.Truncate(m.Content, 100), "\n", " ")
		fmt.Printf("  %s %s %s %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%2d.", i+1)),
			cliui.FormatScore(m.Score),
			cliui.CategoryBadge(m.Category),
			cliui.ValueStyle.Render(content),
		)
		fmt.Printf("      %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%s · %s · accessed %d×",
				cliui.ProjectLabel(m.Project),
				m.CreatedAt.Format("2006-01-02"),
				m.AccessCount)),
		)
	}
	fmt.Println()

	return nil
}
