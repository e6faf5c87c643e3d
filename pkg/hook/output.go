package hook

import (
	"encoding/json"
	"fmt"
	"io"
)

type hookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

type contextOutput struct {
	HookSpecificOutput hookSpecificOutput `json:"hookSpecificOutput"`
}

// EmitContext writes the single-key JSON document that context-bearing
// hooks use to hand text back to the host. Empty text suppresses the write
// entirely: to the host an absent payload and an empty one mean the same
// thing, and silence keeps stdout clean.
func EmitContext(w io.Writer, eventName, text string) error {
	if text == "" {
		return nil
	}

	payload, err := json.Marshal(contextOutput{
		HookSpecificOutput: hookSpecificOutput{
			HookEventName:     eventName,
			AdditionalContext: text,
		},
	})
	if err != nil {
		return fmt.Errorf("encoding hook output: %w", err)
	}

	if _, err := w.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("writing hook output: %w", err)
	}

	return nil
}
