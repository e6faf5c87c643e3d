// Package hook implements the lifecycle hook entrypoints the host invokes
// around its own context management: archival before compaction, restore on
// session start, per-prompt recall, and session teardown.
//
// Every hook is a short-lived process with a strict contract: read one JSON
// document from stdin (bounded by a timeout), do the work, write only the
// contractual payload to stdout, log diagnostics to stderr, and exit 0 no
// matter what went wrong. A broken memory layer degrades to "no memories";
// it never fails the host.
package hook

import "log/slog"

// Host lifecycle event names. These appear verbatim in the host's settings
// file and in the hookEventName field of context output.
const (
	EventPreCompact       = "PreCompact"
	EventSessionStart     = "SessionStart"
	EventSessionEnd       = "SessionEnd"
	EventUserPromptSubmit = "UserPromptSubmit"
	EventSubagentStart    = "SubagentStart"
	EventSubagentStop     = "SubagentStop"
)

// Events lists all hook event names in registration order.
func Events() []string {
	return []string{
		EventPreCompact,
		EventSessionStart,
		EventSessionEnd,
		EventUserPromptSubmit,
		EventSubagentStart,
		EventSubagentStop,
	}
}

// Run executes a hook body and swallows its error after logging it, so the
// wrapping command always exits 0. Failing the host is worse than degrading.
func Run(name string, log *slog.Logger, fn func() error) error {
	if err := fn(); err != nil {
		log.Error("hook failed", "hook", name, "error", err)
	}
	return nil
}
