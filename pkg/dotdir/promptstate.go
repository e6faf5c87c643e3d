package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PromptState is the advisory rate-limit state for per-prompt recall. Losing
// it costs at most one extra recall, so reads tolerate corruption and writes
// are best-effort.
type PromptState struct {
	// LastRecall maps a session key to the unix timestamp of its most
	// recent prompt recall.
	LastRecall map[string]int64 `json:"lastRecall"`
}

// LoadPromptState reads prompt-state.json from the data directory. A missing
// or unparseable file yields an empty state, never an error the caller must
// branch on.
func (m *Manager) LoadPromptState(overrideDir string) (*PromptState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	state := &PromptState{LastRecall: make(map[string]int64)}

	data, err := os.ReadFile(filepath.Join(dir, PromptStateFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return nil, fmt.Errorf("reading prompt state: %w", err)
	}

	if err := json.Unmarshal(data, state); err != nil {
		return &PromptState{LastRecall: make(map[string]int64)}, nil
	}
	if state.LastRecall == nil {
		state.LastRecall = make(map[string]int64)
	}

	return state, nil
}

// SavePromptState persists the rate-limit state atomically.
func (m *Manager) SavePromptState(state *PromptState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil prompt state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling prompt state: %w", err)
	}

	return WriteAtomic(filepath.Join(dir, PromptStateFile), data, 0o644)
}
