// Package dotdir manages the ~/.claude/infinite-context/ data directory.
//
// Everything the memory engine persists lives under one directory: the
// SQLite store, config.json, prompt-state.json, and credentials.toml. The
// manager resolves that directory and owns the atomic-write primitive used
// for the JSON state files.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvDir overrides the data directory when set.
	EnvDir = "INFINITE_CONTEXT_DIR"

	// DBFile is the SQLite database file name inside the data directory.
	DBFile = "memories.db"

	// ConfigFile is the user configuration file name.
	ConfigFile = "config.json"

	// PromptStateFile holds the advisory per-session recall rate-limit state.
	PromptStateFile = "prompt-state.json"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to the data directory, creating it when
// missing. Order of precedence:
//  1. Provided override
//  2. $INFINITE_CONTEXT_DIR
//  3. ~/.claude/infinite-context/
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case os.Getenv(EnvDir) != "":
		dir = os.Getenv(EnvDir)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".claude", "infinite-context")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// DBPath resolves the SQLite database path inside the data directory.
func (m *Manager) DBPath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFile), nil
}

// WriteAtomic writes data via a temp file in the same directory followed by
// a rename, so readers never observe a partially written file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting temp file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}
