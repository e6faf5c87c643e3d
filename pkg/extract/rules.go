package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/scoring"
	"github.com/infinitecontext/infctx/pkg/store"
	"github.com/infinitecontext/infctx/pkg/transcript"
	"github.com/infinitecontext/infctx/pkg/utils"
)

const (
	// changePreviewLen bounds the old/new snippets in edit memories.
	changePreviewLen = 50

	// maxCommandLen bounds archived command text.
	maxCommandLen = 200

	// maxErrorLen bounds archived error text.
	maxErrorLen = 300

	// maxDecisionsPerMessage caps decision lines taken from one assistant
	// message so a planning monologue cannot flood the store.
	maxDecisionsPerMessage = 3

	// maxArchitecturePerBlock caps architecture lines per thinking block.
	maxArchitecturePerBlock = 2

	// userRequestScore is the fixed base score for archived user requests.
	// Requests are context, not conclusions, so they rank below findings.
	userRequestScore = 0.35
)

var (
	// notableCommandRe matches commands worth remembering: package managers,
	// migrations, deploys, infra. Plain ls/cat/grep churn stays out.
	notableCommandRe = regexp.MustCompile(`^(npm (install|uninstall|init|run|test)\b|pip3? (install|uninstall)\b|git (init|clone|checkout|merge|rebase|tag)\b|docker (build|run|compose|push|pull)\b|cargo \S+|make(\s|$)|psql\b|mysql\b|sqlite3\b|redis-cli\b|mongosh?\b|curl .*-X (POST|PUT|DELETE|PATCH)\b|mkdir -p\b|chmod \S+|chown \S+|systemctl \S+|service \S+|ssh )`)

	// decisionRe matches phrasing where the assistant commits to a course.
	decisionRe = regexp.MustCompile(`(?i)\b(i'll|i will|let's|let me|we should|we'll|the approach|instead of|rather than|decided to|choosing|going with|opted for)\b`)

	// decisionSuppressRe drops pure navigation intent that matched above.
	decisionSuppressRe = regexp.MustCompile(`(?i)\b(i'll read|i'll check|let me read|let me look|let me search|let me check)\b`)

	// architectureRe matches design vocabulary inside thinking blocks.
	architectureRe = regexp.MustCompile(`(?i)\b(architecture|design pattern|module|component|interface|abstraction|separation of concerns|dependency|coupling|cohesion|trade-?offs?|approach|strategy|layer)\b`)
)

// Rules is the deterministic extractor: six ordered rules per turn.
type Rules struct {
	cfg *config.Config
}

// NewRules returns the rule-based extractor for the given config.
func NewRules(cfg *config.Config) *Rules {
	return &Rules{cfg: cfg}
}

// Extract walks each turn through the rules in a fixed order: file changes,
// notable commands, errors, decisions, architecture notes, then the user
// request itself.
func (r *Rules) Extract(_ context.Context, turns []transcript.Turn, project, sessionID string) []store.Memory {
	now := time.Now().UTC()

	var memories []store.Memory
	for _, turn := range turns {
		memories = append(memories, r.fileChanges(turn, project, sessionID, now)...)
		memories = append(memories, r.notableCommands(turn, project, sessionID, now)...)
		memories = append(memories, r.errors(turn, project, sessionID, now)...)
		memories = append(memories, r.decisions(turn, project, sessionID, now)...)
		memories = append(memories, r.architecture(turn, project, sessionID, now)...)
		memories = append(memories, r.userRequest(turn, project, sessionID, now)...)
	}
	return memories
}

func (r *Rules) fileChanges(t transcript.Turn, project, sessionID string, now time.Time) []store.Memory {
	var out []store.Memory
	for _, tc := range t.ToolCalls {
		switch tc.Name {
		case "Write", "Edit", "MultiEdit":
		default:
			continue
		}

		path := stringInput(tc.Input, "file_path")
		if path == "" {
			path = stringInput(tc.Input, "path")
		}
		if path == "" {
			continue
		}

		var content, source string
		if tc.Name == "Write" {
			content = "Created/wrote file: " + path
			source = content
		} else {
			source = "Edited file: " + path
			content = source
			if old := stringInput(tc.Input, "old_string"); old != "" {
				content = fmt.Sprintf("%s\n  Changed: \"%s\" → \"%s\"",
					source,
					utils.Truncate(old, changePreviewLen),
					utils.Truncate(stringInput(tc.Input, "new_string"), changePreviewLen))
			}
		}

		out = append(out, r.memory(project, sessionID, config.CategoryFileChange, content, source, now))
	}
	return out
}

func (r *Rules) notableCommands(t transcript.Turn, project, sessionID string, now time.Time) []store.Memory {
	var out []store.Memory
	for _, tc := range t.ToolCalls {
		if tc.Name != "Bash" {
			continue
		}

		cmd := strings.TrimSpace(stringInput(tc.Input, "command"))
		if cmd == "" || !notableCommandRe.MatchString(cmd) {
			continue
		}

		content := "Ran command: " + utils.Truncate(cmd, maxCommandLen)
		out = append(out, r.memory(project, sessionID, config.CategoryNote, content, cmd, now))
	}
	return out
}

func (r *Rules) errors(t transcript.Turn, project, sessionID string, now time.Time) []store.Memory {
	var out []store.Memory
	for _, tr := range t.ToolResults {
		if !tr.IsError {
			continue
		}

		detail := strings.TrimSpace(tr.Content)
		if detail == "" {
			continue
		}

		content := "Error encountered: " + utils.Truncate(detail, maxErrorLen)
		out = append(out, r.memory(project, sessionID, config.CategoryError, content, detail, now))
	}
	return out
}

func (r *Rules) decisions(t transcript.Turn, project, sessionID string, now time.Time) []store.Memory {
	var out []store.Memory
	for _, am := range t.AssistantMessages {
		taken := 0
		for _, line := range strings.Split(am.Text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) < 20 || len(line) > 300 {
				continue
			}
			if !decisionRe.MatchString(line) || decisionSuppressRe.MatchString(line) {
				continue
			}

			out = append(out, r.memory(project, sessionID, config.CategoryDecision, line, line, now))
			taken++
			if taken == maxDecisionsPerMessage {
				break
			}
		}
	}
	return out
}

func (r *Rules) architecture(t transcript.Turn, project, sessionID string, now time.Time) []store.Memory {
	var out []store.Memory
	for _, am := range t.AssistantMessages {
		if am.Thinking == "" {
			continue
		}

		taken := 0
		for _, line := range strings.Split(am.Thinking, "\n") {
			line = strings.TrimSpace(line)
			if len(line) < 30 || len(line) > 400 {
				continue
			}
			if !architectureRe.MatchString(line) {
				continue
			}

			out = append(out, r.memory(project, sessionID, config.CategoryArchitecture, line, line, now))
			taken++
			if taken == maxArchitecturePerBlock {
				break
			}
		}
	}
	return out
}

func (r *Rules) userRequest(t transcript.Turn, project, sessionID string, now time.Time) []store.Memory {
	text := strings.TrimSpace(t.UserMessage.Text)
	if len(text) <= 20 || len(text) > 500 {
		return nil
	}

	m := r.memory(project, sessionID, config.CategoryNote, "User request: "+text, text, now)
	m.Score = userRequestScore
	return []store.Memory{m}
}

// memory assembles one record: clipped content, derived keywords, base score
// from the category, and the dedup fingerprint of its source text.
func (r *Rules) memory(project, sessionID, category, content, sourceText string, now time.Time) store.Memory {
	return store.Memory{
		Project:      project,
		SessionID:    sessionID,
		Category:     category,
		Content:      utils.Clip(content, maxContentBytes),
		Keywords:     scoring.ExtractKeywords(r.cfg, content),
		Score:        scoring.ScoreMemory(r.cfg, category, content),
		CreatedAt:    now,
		LastAccessed: now,
		SourceHash:   SourceHash(sourceText),
	}
}

func stringInput(input map[string]any, key string) string {
	if input == nil {
		return ""
	}
	s, _ := input[key].(string)
	return s
}
