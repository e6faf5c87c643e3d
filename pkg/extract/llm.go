package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/llm"
	"github.com/infinitecontext/infctx/pkg/logger"
	"github.com/infinitecontext/infctx/pkg/store"
	"github.com/infinitecontext/infctx/pkg/transcript"
	"github.com/infinitecontext/infctx/pkg/utils"
)

const (
	// maxLLMItems caps how many memories one model call may produce.
	maxLLMItems = 20

	// maxPromptBytes bounds the conversation excerpt sent to the model.
	maxPromptBytes = 16000
)

const extractionPrompt = `You are the memory system of a coding assistant. Below is a conversation excerpt between a developer and the assistant. Extract facts worth remembering across sessions: architectural choices, decisions and their reasons, errors hit, findings, files changed.

Respond with a JSON array only. Each item: {"category":"...","content":"..."}.
Valid categories: architecture, decision, error, finding, file_change, note.
Keep each content under 300 characters, specific and self-contained.
Respond with [] if nothing is worth keeping.

Conversation:
`

// llmExtractor asks a model for memories and falls back to the rule
// extractor on any failure. Hybrid mode additionally falls back when the
// model finds nothing, so an unhelpful model never loses a turn's facts.
type llmExtractor struct {
	cfg             *config.Config
	call            llm.CallFunc
	rules           *Rules
	log             *slog.Logger
	fallbackOnEmpty bool
}

// NewLLM returns the model-backed extractor.
func NewLLM(cfg *config.Config, call llm.CallFunc, log *slog.Logger) Extractor {
	return newLLMExtractor(cfg, call, log, false)
}

// NewHybrid returns the model-backed extractor that treats empty model
// output as a miss and reruns the rules.
func NewHybrid(cfg *config.Config, call llm.CallFunc, log *slog.Logger) Extractor {
	return newLLMExtractor(cfg, call, log, true)
}

func newLLMExtractor(cfg *config.Config, call llm.CallFunc, log *slog.Logger, fallbackOnEmpty bool) Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &llmExtractor{
		cfg:             cfg,
		call:            call,
		rules:           NewRules(cfg),
		log:             log,
		fallbackOnEmpty: fallbackOnEmpty,
	}
}

type extractItem struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

func (e *llmExtractor) Extract(ctx context.Context, turns []transcript.Turn, project, sessionID string) []store.Memory {
	if len(turns) == 0 {
		return nil
	}

	raw, err := e.call(ctx, buildPrompt(turns))
	if err != nil {
		e.log.Debug("model extraction failed, using rules", "error", err)
		return e.rules.Extract(ctx, turns, project, sessionID)
	}

	items, err := parseItems(raw)
	if err != nil {
		e.log.Debug("model output unparseable, using rules", "error", err)
		return e.rules.Extract(ctx, turns, project, sessionID)
	}

	if len(items) == 0 && e.fallbackOnEmpty {
		return e.rules.Extract(ctx, turns, project, sessionID)
	}

	now := time.Now().UTC()
	memories := make([]store.Memory, 0, len(items))
	for _, item := range items {
		memories = append(memories, e.rules.memory(
			project, sessionID, item.Category, item.Content, item.Content, now))
	}
	return memories
}

// buildPrompt renders turns into a compact excerpt: user and assistant text,
// tool activity, and errors, clipped to the prompt budget.
func buildPrompt(turns []transcript.Turn) string {
	var sb strings.Builder
	sb.WriteString(extractionPrompt)

	for _, t := range turns {
		if text := strings.TrimSpace(t.UserMessage.Text); text != "" {
			fmt.Fprintf(&sb, "User: %s\n", utils.Truncate(text, 500))
		}
		for _, tc := range t.ToolCalls {
			switch tc.Name {
			case "Write", "Edit", "MultiEdit":
				if path := stringInput(tc.Input, "file_path"); path != "" {
					fmt.Fprintf(&sb, "[tool] %s %s\n", tc.Name, path)
				}
			case "Bash":
				if cmd := strings.TrimSpace(stringInput(tc.Input, "command")); cmd != "" {
					fmt.Fprintf(&sb, "[tool] Bash: %s\n", utils.Truncate(cmd, 200))
				}
			}
		}
		for _, tr := range t.ToolResults {
			if tr.IsError && strings.TrimSpace(tr.Content) != "" {
				fmt.Fprintf(&sb, "[error] %s\n", utils.Truncate(strings.TrimSpace(tr.Content), 200))
			}
		}
		for _, am := range t.AssistantMessages {
			if text := strings.TrimSpace(am.Text); text != "" {
				fmt.Fprintf(&sb, "Assistant: %s\n", utils.Truncate(text, 500))
			}
		}
		sb.WriteString("\n")
	}

	return utils.Clip(sb.String(), maxPromptBytes)
}

// parseItems decodes the model's response, tolerating markdown fences and
// surrounding prose. Unknown categories bucket into note; blank items drop.
func parseItems(raw string) ([]extractItem, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("empty response")
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array in response")
	}

	var items []extractItem
	if err := json.Unmarshal([]byte(s[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}

	valid := make([]extractItem, 0, len(items))
	for _, item := range items {
		item.Content = strings.TrimSpace(item.Content)
		if item.Content == "" {
			continue
		}
		switch item.Category {
		case config.CategoryArchitecture, config.CategoryDecision, config.CategoryError,
			config.CategoryFinding, config.CategoryFileChange, config.CategoryNote:
		default:
			item.Category = config.CategoryNote
		}
		valid = append(valid, item)
		if len(valid) == maxLLMItems {
			break
		}
	}
	return valid, nil
}
