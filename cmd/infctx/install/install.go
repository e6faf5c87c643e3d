// Package installcmder provides the install command that registers the six
// lifecycle hooks in the host settings file.
package installcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/hook"
	"github.com/infinitecontext/infctx/pkg/install"
)

const installLongDesc string = `Register the infinite-context lifecycle hooks.

Adds six hook entries to the host settings file (~/.claude/settings.json by
default), each invoking this binary with 'infctx hook <event>'. Entries
already present are left alone, so install is safe to re-run. Other hooks
and settings in the file are preserved.

Examples:
  infctx install
  infctx install --settings /tmp/settings.json`

const installShortDesc string = "Register the lifecycle hooks"

type installCommander struct {
	settingsPath string
	binPath      string
}

func NewInstallCmd() *cobra.Command {
	cmder := &installCommander{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: installShortDesc,
		Long:  installLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.settingsPath, "settings", "", "Override the host settings file path")
	cmd.Flags().StringVar(&cmder.binPath, "bin", "", "Override the hook binary path (default: this executable)")

	return cmd
}

func (c *installCommander) run() error {
	settingsPath, binPath, err := resolvePaths(c.settingsPath, c.binPath)
	if err != nil {
		return err
	}

	if err := cliui.Step(os.Stdout, "Registering lifecycle hooks", func() error {
		return install.Register(settingsPath, binPath)
	}); err != nil {
		return err
	}

	state, err := install.Registered(settingsPath, binPath)
	if err != nil {
		return err
	}

	fmt.Println()
	for _, event := range hook.Events() {
		fmt.Printf("  %s %s\n", cliui.StateMark(state[event]), event)
	}
	fmt.Printf("\n  %s %s\n\n",
		cliui.KeyStyle.Render("Settings:"),
		cliui.DimStyle.Render(settingsPath),
	)

	return nil
}

// resolvePaths fills the settings and binary paths from their defaults. The
// binary path must be absolute: the host invokes hooks with its own working
// directory.
func resolvePaths(settingsPath, binPath string) (string, string, error) {
	var err error

	if settingsPath == "" {
		settingsPath, err = install.DefaultSettingsPath()
		if err != nil {
			return "", "", fmt.Errorf("resolving settings path: %w", err)
		}
	}

	if binPath == "" {
		binPath, err = os.Executable()
		if err != nil {
			return "", "", fmt.Errorf("resolving executable path: %w", err)
		}
	}
	binPath, err = filepath.Abs(binPath)
	if err != nil {
		return "", "", fmt.Errorf("resolving executable path: %w", err)
	}

	return settingsPath, binPath, nil
}
