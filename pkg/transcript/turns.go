package transcript

import "strings"

// Turn is one conversational exchange: a user message and the assistant
// activity that answered it, with tool calls and results flattened for
// extraction.
type Turn struct {
	UserMessage       Message
	AssistantMessages []Message
	ToolCalls         []ToolCall
	ToolResults       []ToolResult
	StartLine         int
	EndLine           int
}

// GroupTurns folds a message sequence into turns. The host emits synthetic
// user messages that carry only tool results; those belong to the turn in
// flight, not a new one. Assistant messages before any user message have no
// turn to join and are dropped.
func GroupTurns(messages []Message) []Turn {
	var turns []Turn
	var cur *Turn

	for _, m := range messages {
		switch m.Role {
		case "user":
			if strings.TrimSpace(m.Text) == "" && len(m.ToolResults) > 0 && cur != nil {
				cur.ToolResults = append(cur.ToolResults, m.ToolResults...)
				cur.EndLine = m.Line
				continue
			}

			if cur != nil {
				turns = append(turns, *cur)
			}
			cur = &Turn{
				UserMessage: m,
				StartLine:   m.Line,
				EndLine:     m.Line,
			}
			cur.ToolResults = append(cur.ToolResults, m.ToolResults...)
		case "assistant":
			if cur == nil {
				continue
			}
			cur.AssistantMessages = append(cur.AssistantMessages, m)
			cur.ToolCalls = append(cur.ToolCalls, m.ToolCalls...)
			cur.ToolResults = append(cur.ToolResults, m.ToolResults...)
			cur.EndLine = m.Line
		}
	}

	if cur != nil {
		turns = append(turns, *cur)
	}

	return turns
}
