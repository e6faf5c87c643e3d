// Package infctxcmder
package infctxcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/infinitecontext/infctx/cmd/infctx/auth"
	backfillcmder "github.com/infinitecontext/infctx/cmd/infctx/backfill"
	browsecmder "github.com/infinitecontext/infctx/cmd/infctx/browse"
	configcmder "github.com/infinitecontext/infctx/cmd/infctx/config"
	dashboardcmder "github.com/infinitecontext/infctx/cmd/infctx/dashboard"
	exportcmder "github.com/infinitecontext/infctx/cmd/infctx/export"
	hookcmder "github.com/infinitecontext/infctx/cmd/infctx/hook"
	installcmder "github.com/infinitecontext/infctx/cmd/infctx/install"
	prunecmder "github.com/infinitecontext/infctx/cmd/infctx/prune"
	recallcmder "github.com/infinitecontext/infctx/cmd/infctx/recall"
	searchcmder "github.com/infinitecontext/infctx/cmd/infctx/search"
	statuscmder "github.com/infinitecontext/infctx/cmd/infctx/status"
	uninstallcmder "github.com/infinitecontext/infctx/cmd/infctx/uninstall"
	versioncmder "github.com/infinitecontext/infctx/cmd/version"
)

const infctxLongDesc string = `Infinite-context is persistent memory for your coding agent.

It archives salient facts from session transcripts before the host compacts
its context window, and restores the highest-value memories into future
sessions.

Get started:
  infctx install      Register the lifecycle hooks
  infctx status       Inspect the memory store
  infctx dashboard    Serve the local web dashboard`

const infctxShortDesc string = "Infinite-context - persistent agent memory"

func NewInfctxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infctx",
		Short: infctxShortDesc,
		Long:  infctxLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("data-dir", "", "Override the data directory (default ~/.claude/infinite-context)")

	// Add subcommands
	cmd.AddCommand(installcmder.NewInstallCmd())
	cmd.AddCommand(uninstallcmder.NewUninstallCmd())
	cmd.AddCommand(hookcmder.NewHookCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(prunecmder.NewPruneCmd())
	cmd.AddCommand(backfillcmder.NewBackfillCmd())
	cmd.AddCommand(dashboardcmder.NewDashboardCmd())
	cmd.AddCommand(browsecmder.NewBrowseCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
