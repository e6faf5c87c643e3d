// Package recallcmder provides the recall command, a dry run of per-prompt
// memory injection.
package recallcmder

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/restore"
	"github.com/infinitecontext/infctx/pkg/scoring"
	"github.com/infinitecontext/infctx/pkg/store"
)

const recallLongDesc string = `Preview what memory would be recalled for a prompt.

Runs the same keyword extraction and search the user-prompt-submit hook runs,
then prints the context block that would be injected. Nothing is written and
no access counters move, so recall is safe to run while tuning extraction.

The project defaults to the current working directory, matching how the hook
sees a live session. Pass --project to preview another project's recall.

Examples:
  infctx recall how do we retry failed stripe webhooks
  infctx recall migration ordering --project /home/dev/billing
  infctx recall auth flow --plain`

const recallShortDesc string = "Preview per-prompt memory recall"

type recallCommander struct {
	project string
	plain   bool
}

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}

	cmd := &cobra.Command{
		Use:   "recall <prompt...>",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return cmder.run(strings.Join(args, " "), dataDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Recall against this project instead of the working directory")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print the raw context block without markdown rendering")

	return cmd
}

func (c *recallCommander) run(prompt, dataDir string) error {
	mgr := dotdir.NewManager()

	dir, err := mgr.Target(dataDir)
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	project := c.project
	if project == "" {
		if project, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
	}
	pcfg := cfg.ForProject(project)

	dbPath, err := mgr.DBPath(dataDir)
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	keywords := scoring.ExtractKeywords(pcfg, prompt)
	if keywords == "" {
		fmt.Printf("\n  %s Prompt too short to recall anything.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	memories, err := st.Search(keywords, project, pcfg.MaxPromptRecallResults)
	if err != nil {
		return err
	}

	block, _ := restore.ForPrompt(memories)
	if block == "" {
		fmt.Printf("\n  %s No matching memories.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Printf("\n  %s %s\n",
		cliui.HeaderStyle.Render("Recall for:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%q", prompt)),
	)
	fmt.Printf("  %s\n\n",
		cliui.DimStyle.Render(fmt.Sprintf("project %s · keywords %q", cliui.ProjectLabel(project), keywords)),
	)

	if c.plain {
		fmt.Println(block)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(block)
	if err != nil {
		fmt.Println(block)
		return nil
	}
	fmt.Println(rendered)

	return nil
}
