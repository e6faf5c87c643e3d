// Package statuscmder provides the status command for inspecting the memory
// store and hook registration.
package statuscmder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/git"
	"github.com/infinitecontext/infctx/pkg/hook"
	"github.com/infinitecontext/infctx/pkg/install"
	"github.com/infinitecontext/infctx/pkg/store"
)

const statusLongDesc string = `Show the state of the memory store.

Displays the data directory, database size, memory counts by category,
session totals, and which lifecycle hooks are registered in the host
settings file.

Examples:
  infctx status`

const statusShortDesc string = "Show memory store state"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return runStatus(dataDir)
		},
	}

	return cmd
}

func runStatus(dataDir string) error {
	dir, err := dotdir.NewManager().Target(dataDir)
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}
	dbPath := filepath.Join(dir, dotdir.DBFile)

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("infinite-context"))
	if wd, err := os.Getwd(); err == nil {
		fmt.Printf("  %s   %s %s\n", cliui.KeyStyle.Render("Project:"),
			cliui.NameStyle.Render(git.NameFor(wd)), cliui.DimStyle.Render("("+wd+")"))
	}
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Data dir:"), cliui.DimStyle.Render(dir))

	fi, err := os.Stat(dbPath)
	if os.IsNotExist(err) {
		fmt.Printf("\n  %s No memories archived yet. Hooks will populate the store as you work.\n\n",
			cliui.DimStyle.Render("●"))
		return printHooks()
	}
	if err != nil {
		return fmt.Errorf("reading database: %w", err)
	}
	fmt.Printf("  %s  %s %s\n", cliui.KeyStyle.Render("Database:"),
		cliui.DimStyle.Render(dbPath), cliui.DimStyle.Render("("+formatBytes(fi.Size())+")"))

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	stats, err := st.Stats()
	closeErr := st.Close()
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}
	if closeErr != nil {
		return closeErr
	}

	fmt.Printf("\n  %s %s across %s projects, %s sessions %s\n\n",
		cliui.KeyStyle.Render("Memories:"),
		cliui.NameStyle.Render(fmt.Sprintf("%d", stats.TotalMemories)),
		cliui.NameStyle.Render(fmt.Sprintf("%d", stats.Projects)),
		cliui.NameStyle.Render(fmt.Sprintf("%d", stats.Sessions)),
		cliui.DimStyle.Render(fmt.Sprintf("(avg score %.2f)", stats.AverageScore)),
	)

	categories := make([]string, 0, len(stats.Categories))
	for c := range stats.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		cs := stats.Categories[c]
		fmt.Printf("  %s %4d  %s\n",
			cliui.CategoryBadge(c), cs.Count,
			cliui.DimStyle.Render(fmt.Sprintf("avg %.2f", cs.AverageScore)))
	}
	fmt.Println()

	return printHooks()
}

// printHooks shows per-event registration state for this binary.
func printHooks() error {
	settingsPath, err := install.DefaultSettingsPath()
	if err != nil {
		return nil
	}
	binPath, err := os.Executable()
	if err != nil {
		return nil
	}

	state, err := install.Registered(settingsPath, binPath)
	if err != nil {
		fmt.Printf("  %s Could not read %s: %v\n\n", cliui.WarnMark, settingsPath, err)
		return nil
	}

	fmt.Printf("  %s\n\n", cliui.HeaderStyle.Render("Hooks"))
	for _, event := range hook.Events() {
		fmt.Printf("  %s %s\n", cliui.StateMark(state[event]), event)
	}
	fmt.Println()

	return nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
