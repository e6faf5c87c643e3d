package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in config.json in the data
directory. Values are validated before saving: count keys must be positive
integers, factor and threshold keys must be fractions in [0, 1], and
extraction.mode must be rules, llm, or hybrid.

Examples:
  infctx config set maxRestoreTokens 6000
  infctx config set decayFactor 0.9
  infctx config set extraction.mode hybrid
  infctx config set dashboard.listen 127.0.0.1:9000`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return runSet(args[0], args[1], dataDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runSet(key, value, dataDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(dataDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Printf("  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
