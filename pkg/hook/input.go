package hook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// DefaultInputTimeout bounds the stdin read. The host normally closes the
// pipe right after writing; the timeout covers hosts that leave it open.
const DefaultInputTimeout = 500 * time.Millisecond

// Input is the host event payload delivered on stdin. One JSON document per
// invocation; fields a given event does not send stay zero.
type Input struct {
	SessionID           string `json:"session_id"`
	TranscriptPath      string `json:"transcript_path"`
	CWD                 string `json:"cwd"`
	Trigger             string `json:"trigger"`
	Source              string `json:"source"`
	Prompt              string `json:"prompt"`
	AgentID             string `json:"agent_id"`
	AgentType           string `json:"agent_type"`
	AgentTranscriptPath string `json:"agent_transcript_path"`
}

// ReadInput reads one JSON document from r, resolving exactly once on
// whichever fires first: stream end, read error, or the timeout. A nil
// result means "no input"; callers no-op on it. The returned error exists
// only for diagnostics and never changes the no-op outcome.
func ReadInput(r io.Reader, timeout time.Duration) (*Input, error) {
	type readResult struct {
		data []byte
		err  error
	}

	done := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(r)
		done <- readResult{data: data, err: err}
	}()

	var data []byte
	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("reading hook input: %w", res.err)
		}
		data = res.data
	case <-time.After(timeout):
		return nil, nil
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing hook input: %w", err)
	}

	return &in, nil
}
