// Package config loads, validates, and persists the infinite-context
// configuration. Hooks read config.json at most once per process; the
// package-level cache plus Reset keeps that cheap and test-friendly.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/infinitecontext/infctx/pkg/dotdir"
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	cfger.targetPath = filepath.Join(target, dotdir.ConfigFile)

	return cfger, nil
}

// ValidConfigKeys returns all supported configuration key names in a stable,
// logical order.
func ValidConfigKeys() []string {
	ordered := []string{
		"maxRestoreTokens",
		"maxMemoriesPerRestore",
		"maxPromptRecallResults",
		"decayFactor",
		"decayIntervalDays",
		"pruneThreshold",
		"scoreFloor",
		"maxMemoriesPerProject",
		"extraction.mode",
		"extraction.provider",
		"extraction.model",
		"dashboard.listen",
	}

	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.json from the data directory. A missing file
// yields pure defaults; a malformed file also yields defaults so a broken
// config can never take the hooks down. Fields set in the file override
// defaults after sanitization.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := ParseConfig(data)
	return cfg, nil
}

// ParseConfig parses raw config.json bytes. Malformed JSON falls back to
// defaults; recognized fields are validated and invalid values revert to
// their defaults. Unknown keys are ignored.
func ParseConfig(data []byte) *Config {
	cfg := NewDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return NewDefaultConfig()
	}

	sanitize(cfg)
	return cfg
}

// sanitize enforces the validation rules: integer fields finite and >= 1,
// fraction fields in [0, 1]; anything else falls back to the default.
func sanitize(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.MaxRestoreTokens < 1 {
		cfg.MaxRestoreTokens = defaults.MaxRestoreTokens
	}
	if cfg.MaxMemoriesPerRestore < 1 {
		cfg.MaxMemoriesPerRestore = defaults.MaxMemoriesPerRestore
	}
	if cfg.MaxPromptRecallResults < 1 {
		cfg.MaxPromptRecallResults = defaults.MaxPromptRecallResults
	}
	if cfg.DecayIntervalDays < 1 {
		cfg.DecayIntervalDays = defaults.DecayIntervalDays
	}
	if cfg.MaxMemoriesPerProject < 1 {
		cfg.MaxMemoriesPerProject = defaults.MaxMemoriesPerProject
	}
	if !validFraction(cfg.DecayFactor) {
		cfg.DecayFactor = defaults.DecayFactor
	}
	if !validFraction(cfg.PruneThreshold) {
		cfg.PruneThreshold = defaults.PruneThreshold
	}
	if !validFraction(cfg.ScoreFloor) {
		cfg.ScoreFloor = defaults.ScoreFloor
	}
	if cfg.CategoryWeights == nil {
		cfg.CategoryWeights = DefaultCategoryWeights()
	}
	defWeights := DefaultCategoryWeights()
	for k, w := range cfg.CategoryWeights {
		if !validFraction(w) {
			if dw, ok := defWeights[k]; ok {
				cfg.CategoryWeights[k] = dw
			} else {
				delete(cfg.CategoryWeights, k)
			}
		}
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = DefaultStopwords()
	}
	if cfg.Dashboard.Listen == "" {
		cfg.Dashboard.Listen = defaults.Dashboard.Listen
	}
	switch cfg.Extraction.Mode {
	case ModeRules, ModeLLM, ModeHybrid:
	default:
		cfg.Extraction.Mode = ModeRules
	}

	cfg.stopwordSet = nil
}

func validFraction(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0 && f <= 1
}

// SaveConfig persists the configuration atomically (temp file + rename) so
// concurrent hook processes never read a torn config.json.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := dotdir.WriteAtomic(c.targetPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	Reset()
	return nil
}

// MergeConfig overlays a partial JSON document onto the stored config,
// revalidates, and saves atomically. Unknown keys are ignored and invalid
// values revert to their defaults, mirroring how LoadConfig reads the file.
func (c *Configer) MergeConfig(data []byte) (*Config, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config update: %w", err)
	}
	sanitize(cfg)
	if err := c.SaveConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

var (
	cacheMu   sync.Mutex
	cached    *Config
	cachedDir string
)

// Load returns the process-wide cached config for the given data directory,
// reading disk on first use. Hook processes are short-lived, so the cache is
// effectively per-invocation; Reset exists for test determinism.
func Load(dataDir string) (*Config, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached != nil && cachedDir == dataDir {
		return cached, nil
	}

	cfger, err := NewConfiger(dataDir)
	if err != nil {
		return nil, err
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, err
	}

	cached = cfg
	cachedDir = dataDir
	return cfg, nil
}

// Reset discards the cached config; the next Load re-reads disk.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cached = nil
	cachedDir = ""
}
