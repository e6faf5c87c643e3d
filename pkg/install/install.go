// Package install wires the infctx binary into the host's settings file.
// The file belongs to the host, not to us: every operation is a
// read-modify-write over a generic JSON map so foreign keys and entries
// survive untouched, and removal only ever targets entries that reference
// our binary.
package install

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/hook"
)

// eventCommands maps each hook event to the subcommand the binary runs
// for it.
var eventCommands = map[string]string{
	hook.EventPreCompact:       "pre-compact",
	hook.EventSessionStart:     "session-start",
	hook.EventSessionEnd:       "session-end",
	hook.EventUserPromptSubmit: "user-prompt-submit",
	hook.EventSubagentStart:    "subagent-start",
	hook.EventSubagentStop:     "subagent-stop",
}

// DefaultSettingsPath returns the host settings file, ~/.claude/settings.json.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// Command renders the shell command registered for one event. Paths with
// spaces are double-quoted so the host's shell keeps them whole.
func Command(binPath, event string) string {
	sub, ok := eventCommands[event]
	if !ok {
		return ""
	}
	quoted := binPath
	if strings.ContainsAny(binPath, " \t") {
		quoted = `"` + binPath + `"`
	}
	return quoted + " hook " + sub
}

// Register adds the six hook entries to the settings file, creating it when
// missing. Entries already referencing the binary are left alone, so the
// operation is idempotent.
func Register(settingsPath, binPath string) error {
	settings, err := readSettings(settingsPath)
	if err != nil {
		return err
	}

	hooks := asMap(settings["hooks"])

	for _, event := range hook.Events() {
		entries := asSlice(hooks[event])
		if containsBinary(entries, binPath) {
			continue
		}

		entries = append(entries, map[string]any{
			"hooks": []any{
				map[string]any{
					"type":    "command",
					"command": Command(binPath, event),
				},
			},
		})
		hooks[event] = entries
	}

	settings["hooks"] = hooks
	return writeSettings(settingsPath, settings)
}

// Unregister removes every hook entry whose command references the binary.
// Foreign entries and all other settings keys are preserved.
func Unregister(settingsPath, binPath string) error {
	settings, err := readSettings(settingsPath)
	if err != nil {
		return err
	}

	hooks := asMap(settings["hooks"])
	if len(hooks) == 0 {
		return nil
	}

	for _, event := range hook.Events() {
		entries := asSlice(hooks[event])
		if len(entries) == 0 {
			continue
		}

		kept := entries[:0]
		for _, entry := range entries {
			if !entryReferences(entry, binPath) {
				kept = append(kept, entry)
			}
		}

		if len(kept) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = kept
		}
	}

	if len(hooks) == 0 {
		delete(settings, "hooks")
	} else {
		settings["hooks"] = hooks
	}

	return writeSettings(settingsPath, settings)
}

// Registered reports, per event, whether the settings file holds an entry
// referencing the binary.
func Registered(settingsPath, binPath string) (map[string]bool, error) {
	state := make(map[string]bool, len(eventCommands))
	for _, event := range hook.Events() {
		state[event] = false
	}

	settings, err := readSettings(settingsPath)
	if err != nil {
		return nil, err
	}

	hooks := asMap(settings["hooks"])
	for _, event := range hook.Events() {
		state[event] = containsBinary(asSlice(hooks[event]), binPath)
	}

	return state, nil
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	settings := map[string]any{}
	if len(data) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	return dotdir.WriteAtomic(path, append(data, '\n'), 0o644)
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}

// containsBinary reports whether any entry's command references binPath.
func containsBinary(entries []any, binPath string) bool {
	for _, entry := range entries {
		if entryReferences(entry, binPath) {
			return true
		}
	}
	return false
}

func entryReferences(entry any, binPath string) bool {
	for _, h := range asSlice(asMap(entry)["hooks"]) {
		cmd, _ := asMap(h)["command"].(string)
		if cmd != "" && strings.Contains(cmd, binPath) {
			return true
		}
	}
	return false
}
