package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent infinite-context configuration stored as
// config.json in the data directory. All fields carry camelCase JSON names;
// unknown keys in the file are ignored.
type Config struct {
	// MaxRestoreTokens caps the token budget for context assembly.
	MaxRestoreTokens int `json:"maxRestoreTokens" mapstructure:"maxRestoreTokens"`

	// MaxMemoriesPerRestore bounds how many memories are fetched for a restore.
	MaxMemoriesPerRestore int `json:"maxMemoriesPerRestore" mapstructure:"maxMemoriesPerRestore"`

	// MaxPromptRecallResults bounds per-prompt recall hits.
	MaxPromptRecallResults int `json:"maxPromptRecallResults" mapstructure:"maxPromptRecallResults"`

	// DecayFactor is the multiplicative score factor applied per decay interval.
	DecayFactor float64 `json:"decayFactor" mapstructure:"decayFactor"`

	// DecayIntervalDays is the inactivity threshold before decay applies.
	DecayIntervalDays int `json:"decayIntervalDays" mapstructure:"decayIntervalDays"`

	// PruneThreshold deletes memories whose score falls below it.
	PruneThreshold float64 `json:"pruneThreshold" mapstructure:"pruneThreshold"`

	// ScoreFloor is the lowest score decay may produce.
	ScoreFloor float64 `json:"scoreFloor" mapstructure:"scoreFloor"`

	// MaxMemoriesPerProject is the per-project retention cap.
	MaxMemoriesPerProject int `json:"maxMemoriesPerProject" mapstructure:"maxMemoriesPerProject"`

	// CategoryWeights are the per-category base score weights.
	CategoryWeights map[string]float64 `json:"categoryWeights" mapstructure:"categoryWeights"`

	// Stopwords is the keyword filter set.
	Stopwords []string `json:"stopwords" mapstructure:"stopwords"`

	// Extraction selects how memories are produced from transcripts.
	Extraction ExtractionConfig `json:"extraction" mapstructure:"extraction"`

	// Dashboard configures the local web dashboard server.
	Dashboard DashboardConfig `json:"dashboard" mapstructure:"dashboard"`

	// Projects holds partial per-project overrides keyed by project path.
	Projects map[string]*ProjectConfig `json:"projects,omitempty" mapstructure:"projects"`

	stopwordSet map[string]struct{}
}

// DashboardConfig holds the dashboard server settings.
type DashboardConfig struct {
	// Listen is the host:port the dashboard binds to.
	Listen string `json:"listen" mapstructure:"listen"`
}

// ExtractionConfig selects the extraction pipeline.
type ExtractionConfig struct {
	// Mode is one of "rules", "llm", or "hybrid".
	Mode string `json:"mode" mapstructure:"mode"`

	// Provider is the LLM provider for llm/hybrid modes
	// ("anthropic", "openai", "ollama").
	Provider string `json:"provider,omitempty" mapstructure:"provider"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty" mapstructure:"model"`
}

// ProjectConfig is a partial override applied on top of the global config for
// one project. Pointer fields distinguish "not set" from an explicit zero.
type ProjectConfig struct {
	MaxRestoreTokens       *int     `json:"maxRestoreTokens,omitempty"`
	MaxMemoriesPerRestore  *int     `json:"maxMemoriesPerRestore,omitempty"`
	MaxPromptRecallResults *int     `json:"maxPromptRecallResults,omitempty"`
	DecayFactor            *float64 `json:"decayFactor,omitempty"`
	DecayIntervalDays      *int     `json:"decayIntervalDays,omitempty"`
	PruneThreshold         *float64 `json:"pruneThreshold,omitempty"`
	ScoreFloor             *float64 `json:"scoreFloor,omitempty"`
	MaxMemoriesPerProject  *int     `json:"maxMemoriesPerProject,omitempty"`

	// CategoryWeights deep-merge over the global weights.
	CategoryWeights map[string]float64 `json:"categoryWeights,omitempty"`

	// Stopwords replace the global set entirely when present.
	Stopwords []string `json:"stopwords,omitempty"`

	Extraction *ExtractionConfig `json:"extraction,omitempty"`
}

// IsStopword reports whether the token is in the configured stopword set.
func (c *Config) IsStopword(token string) bool {
	if c.stopwordSet == nil {
		c.stopwordSet = make(map[string]struct{}, len(c.Stopwords))
		for _, w := range c.Stopwords {
			c.stopwordSet[strings.ToLower(w)] = struct{}{}
		}
	}
	_, ok := c.stopwordSet[token]
	return ok
}

// Weight returns the base score weight for a category, falling back to the
// default weight for unknown categories.
func (c *Config) Weight(category string) float64 {
	if w, ok := c.CategoryWeights[category]; ok {
		return w
	}
	return DefaultWeight
}

// ForProject returns the effective config for one project: the global config
// shallow-merged with its override, category weights deep-merged.
func (c *Config) ForProject(project string) *Config {
	merged := *c
	merged.stopwordSet = nil

	// The merged view owns its weight map so overrides never mutate the base.
	weights := make(map[string]float64, len(c.CategoryWeights))
	for k, v := range c.CategoryWeights {
		weights[k] = v
	}
	merged.CategoryWeights = weights

	override, ok := c.Projects[project]
	if !ok || override == nil {
		return &merged
	}

	if override.MaxRestoreTokens != nil {
		merged.MaxRestoreTokens = *override.MaxRestoreTokens
	}
	if override.MaxMemoriesPerRestore != nil {
		merged.MaxMemoriesPerRestore = *override.MaxMemoriesPerRestore
	}
	if override.MaxPromptRecallResults != nil {
		merged.MaxPromptRecallResults = *override.MaxPromptRecallResults
	}
	if override.DecayFactor != nil {
		merged.DecayFactor = *override.DecayFactor
	}
	if override.DecayIntervalDays != nil {
		merged.DecayIntervalDays = *override.DecayIntervalDays
	}
	if override.PruneThreshold != nil {
		merged.PruneThreshold = *override.PruneThreshold
	}
	if override.ScoreFloor != nil {
		merged.ScoreFloor = *override.ScoreFloor
	}
	if override.MaxMemoriesPerProject != nil {
		merged.MaxMemoriesPerProject = *override.MaxMemoriesPerProject
	}
	for k, v := range override.CategoryWeights {
		merged.CategoryWeights[k] = v
	}
	if override.Stopwords != nil {
		merged.Stopwords = override.Stopwords
	}
	if override.Extraction != nil {
		merged.Extraction = *override.Extraction
	}

	sanitize(&merged)
	return &merged
}

// configKeyInfo maps a user-facing key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(get func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*get(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value %q: %w", v, err)
			}
			if n < 1 {
				return fmt.Errorf("value must be >= 1, got %d", n)
			}
			*get(c) = n
			return nil
		},
	}
}

func fractionKey(get func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(*get(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid numeric value %q: %w", v, err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("value must be in [0, 1], got %g", f)
			}
			*get(c) = f
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys, named
// after the config.json fields.
var configKeys = map[string]configKeyInfo{
	"maxRestoreTokens":       intKey(func(c *Config) *int { return &c.MaxRestoreTokens }),
	"maxMemoriesPerRestore":  intKey(func(c *Config) *int { return &c.MaxMemoriesPerRestore }),
	"maxPromptRecallResults": intKey(func(c *Config) *int { return &c.MaxPromptRecallResults }),
	"decayIntervalDays":      intKey(func(c *Config) *int { return &c.DecayIntervalDays }),
	"maxMemoriesPerProject":  intKey(func(c *Config) *int { return &c.MaxMemoriesPerProject }),
	"decayFactor":            fractionKey(func(c *Config) *float64 { return &c.DecayFactor }),
	"pruneThreshold":         fractionKey(func(c *Config) *float64 { return &c.PruneThreshold }),
	"scoreFloor":             fractionKey(func(c *Config) *float64 { return &c.ScoreFloor }),
	"extraction.mode": {
		get: func(c *Config) string { return c.Extraction.Mode },
		set: func(c *Config, v string) error {
			mode := strings.ToLower(strings.TrimSpace(v))
			switch mode {
			case ModeRules, ModeLLM, ModeHybrid:
				c.Extraction.Mode = mode
				return nil
			default:
				return fmt.Errorf("invalid extraction mode %q (valid: %s, %s, %s)",
					v, ModeRules, ModeLLM, ModeHybrid)
			}
		},
	},
	"extraction.provider": {
		get: func(c *Config) string { return c.Extraction.Provider },
		set: func(c *Config, v string) error { c.Extraction.Provider = v; return nil },
	},
	"extraction.model": {
		get: func(c *Config) string { return c.Extraction.Model },
		set: func(c *Config, v string) error { c.Extraction.Model = v; return nil },
	},
	"dashboard.listen": {
		get: func(c *Config) string { return c.Dashboard.Listen },
		set: func(c *Config, v string) error { c.Dashboard.Listen = v; return nil },
	},
}
