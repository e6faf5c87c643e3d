// Package uninstallcmder provides the uninstall command that removes the
// lifecycle hooks from the host settings file.
package uninstallcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/install"
)

const uninstallLongDesc string = `Remove the infinite-context lifecycle hooks.

Deletes only the hook entries that reference this binary from the host
settings file. Hooks belonging to other tools and all other settings are
preserved. The memory store itself is untouched.

Examples:
  infctx uninstall
  infctx uninstall --settings /tmp/settings.json`

const uninstallShortDesc string = "Remove the lifecycle hooks"

type uninstallCommander struct {
	settingsPath string
	binPath      string
}

func NewUninstallCmd() *cobra.Command {
	cmder := &uninstallCommander{}

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: uninstallShortDesc,
		Long:  uninstallLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.settingsPath, "settings", "", "Override the host settings file path")
	cmd.Flags().StringVar(&cmder.binPath, "bin", "", "Override the hook binary path (default: this executable)")

	return cmd
}

func (c *uninstallCommander) run() error {
	settingsPath := c.settingsPath
	if settingsPath == "" {
		var err error
		settingsPath, err = install.DefaultSettingsPath()
		if err != nil {
			return fmt.Errorf("resolving settings path: %w", err)
		}
	}

	binPath := c.binPath
	if binPath == "" {
		var err error
		binPath, err = os.Executable()
		if err != nil {
			return fmt.Errorf("resolving executable path: %w", err)
		}
	}
	binPath, err := filepath.Abs(binPath)
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	if err := cliui.Step(os.Stdout, "Removing lifecycle hooks", func() error {
		return install.Unregister(settingsPath, binPath)
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Hooks removed. The memory store was left intact.\n\n", cliui.SuccessMark)
	return nil
}
