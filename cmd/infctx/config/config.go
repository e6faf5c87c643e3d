// Package configcmder provides the config command for managing persistent
// infinite-context configuration stored in the data directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent infinite-context configuration.

Configuration is stored as config.json in the data directory. Hooks read it
on every invocation, so changes take effect from the next event onward
without reinstalling.

Keys use dotted notation for nested sections:
  maxRestoreTokens, maxMemoriesPerRestore, maxPromptRecallResults,
  decayFactor, decayIntervalDays, pruneThreshold, scoreFloor,
  maxMemoriesPerProject,
  extraction.mode, extraction.provider, extraction.model,
  dashboard.listen

Use subcommands to get, set, or list configuration values:
  infctx config set <key> <value>    Set a configuration value
  infctx config get <key>            Get a configuration value
  infctx config list                 List all configuration values

Examples:
  infctx config set maxRestoreTokens 6000
  infctx config set extraction.mode hybrid
  infctx config get decayFactor
  infctx config list`

const configShortDesc string = "Manage persistent infinite-context configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
