// Package transcript parses Claude Code JSONL transcripts into messages and
// turns for memory extraction. Transcripts are append-only; callers track a
// line checkpoint and hand it back so only new lines are surfaced.
package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
)

// Message is one conversational message distilled from a transcript line.
type Message struct {
	// Role is "user" or "assistant"; envelope entries never surface here.
	Role string

	// Text is the concatenated text content.
	Text string

	// Thinking is the concatenated thinking content.
	Thinking string

	// ToolCalls are tool invocations made by this message.
	ToolCalls []ToolCall

	// ToolResults are tool outputs carried by this message.
	ToolResults []ToolResult

	// Line is the non-blank line number this message came from.
	Line int
}

// ToolCall is a single tool invocation.
type ToolCall struct {
	Name  string
	ID    string
	Input map[string]any
}

// ToolResult is a single tool output.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// entry is the wire shape of one JSONL line. Only the fields extraction
// needs are decoded; everything else is ignored.
type entry struct {
	Type    string          `json:"type"`
	Message *entryMessage   `json:"message"`
	Content json.RawMessage `json:"content"`
}

type entryMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type block struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	Name      string          `json:"name"`
	ID        string          `json:"id"`
	Input     map[string]any  `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// ParseFile reads a JSONL transcript and returns the messages found after
// afterLine, plus the greatest non-blank line number reached. Blank lines do
// not count; malformed lines count but produce nothing, so a checkpoint can
// always move past them.
func ParseFile(path string, afterLine int) ([]Message, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, afterLine, err
	}
	defer f.Close()

	var messages []Message
	lastLine := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB max line

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}

		lastLine++
		if lastLine <= afterLine {
			continue
		}

		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue // skip malformed lines
		}

		msg, ok := e.toMessage()
		if !ok {
			continue
		}

		msg.Line = lastLine
		messages = append(messages, msg)
	}

	if err := scanner.Err(); err != nil {
		return nil, afterLine, err
	}

	return messages, lastLine, nil
}

// toMessage derives a Message from a decoded entry, reporting false for
// envelope types (system, progress, file-history-snapshot and friends).
func (e *entry) toMessage() (Message, bool) {
	var msg Message

	if e.Message != nil && (e.Message.Role == "user" || e.Message.Role == "assistant") {
		msg.Role = e.Message.Role
	} else {
		switch e.Type {
		case "user", "assistant":
			msg.Role = e.Type
		case "A":
			// Short-form assistant rows from older transcript formats.
			msg.Role = "assistant"
		default:
			return Message{}, false
		}
	}

	if e.Message != nil {
		walkContent(e.Message.Content, &msg)
	} else {
		walkContent(e.Content, &msg)
	}

	return msg, true
}

// walkContent fills a message from a content value that is either a plain
// string or an array of typed blocks.
func walkContent(raw json.RawMessage, msg *Message) {
	if len(raw) == 0 {
		return
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		msg.Text += plain
		return
	}

	var blocks []block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return
	}

	for _, b := range blocks {
		switch b.Type {
		case "text":
			msg.Text += b.Text
		case "thinking":
			msg.Thinking += b.Thinking
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				Name:  b.Name,
				ID:    b.ID,
				Input: b.Input,
			})
		case "tool_result":
			msg.ToolResults = append(msg.ToolResults, ToolResult{
				ToolUseID: b.ToolUseID,
				Content:   resultText(b.Content),
				IsError:   b.IsError,
			})
		}
	}
}

// resultText renders a tool_result content value: strings pass through,
// arrays of text blocks join with newlines, anything else is empty.
func resultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var blocks []block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "text" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
