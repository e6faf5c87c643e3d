package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/infinitecontext/infctx/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.json file
// (if found via dotdir resolution), and binds environment variables
// with the INFINITE_CONTEXT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (INFINITE_CONTEXT_DASHBOARD_LISTEN, etc.)
//  3. config.json file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("json")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: INFINITE_CONTEXT_DASHBOARD_LISTEN, etc.
	v.SetEnvPrefix("INFINITE_CONTEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	// Restoration
	v.SetDefault("maxRestoreTokens", d.MaxRestoreTokens)
	v.SetDefault("maxMemoriesPerRestore", d.MaxMemoriesPerRestore)
	v.SetDefault("maxPromptRecallResults", d.MaxPromptRecallResults)

	// Retention
	v.SetDefault("decayFactor", d.DecayFactor)
	v.SetDefault("decayIntervalDays", d.DecayIntervalDays)
	v.SetDefault("pruneThreshold", d.PruneThreshold)
	v.SetDefault("scoreFloor", d.ScoreFloor)
	v.SetDefault("maxMemoriesPerProject", d.MaxMemoriesPerProject)

	// Extraction
	v.SetDefault("extraction.mode", d.Extraction.Mode)
	v.SetDefault("extraction.provider", d.Extraction.Provider)
	v.SetDefault("extraction.model", d.Extraction.Model)

	// Dashboard
	v.SetDefault("dashboard.listen", d.Dashboard.Listen)
}
