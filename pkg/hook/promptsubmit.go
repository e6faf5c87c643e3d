package hook

import (
	"context"
	"strings"
	"time"

	"github.com/infinitecontext/infctx/pkg/restore"
	"github.com/infinitecontext/infctx/pkg/scoring"
)

const (
	// minPromptChars skips prompts too short to carry searchable intent.
	minPromptChars = 10

	// promptRecallInterval is the advisory per-session recall rate limit.
	promptRecallInterval = 60 * time.Second

	// promptTokenCeiling triggers truncation of the assembled recall text;
	// promptTokenTarget is what it is cut down to.
	promptTokenCeiling = 600
	promptTokenTarget  = 500
)

// UserPromptSubmit recalls memories related to the prompt the user just
// typed and injects them as additional context.
func (h *Handler) UserPromptSubmit(ctx context.Context, in *Input) error {
	if in == nil || in.CWD == "" {
		return nil
	}

	prompt := strings.TrimSpace(in.Prompt)
	if len(prompt) < minPromptChars {
		return nil
	}
	// Slash commands and pasted markup are host machinery, not intent.
	if strings.HasPrefix(prompt, "/") || strings.HasPrefix(prompt, "<") {
		return nil
	}

	st, cfg, err := h.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pcfg := cfg.ForProject(in.CWD)

	query := scoring.ExtractKeywords(pcfg, prompt)
	if query == "" {
		return nil
	}

	if !h.recallAllowed(in.SessionID) {
		return nil
	}

	mems, err := st.Search(query, in.CWD, pcfg.MaxPromptRecallResults)
	if err != nil {
		return err
	}

	text, ids := restore.ForPrompt(mems)
	if text == "" {
		return nil
	}

	if scoring.EstimateTokens(text) > promptTokenCeiling {
		text, ids = truncateRecall(text, ids, promptTokenTarget)
		if text == "" {
			return nil
		}
	}

	if err := st.TouchMemories(ids); err != nil {
		h.log.Debug("touch after recall failed", "error", err)
	}

	return EmitContext(h.stdout, EventUserPromptSubmit, text)
}

// recallAllowed enforces the advisory one-recall-per-minute limit. The
// state file is best-effort: any I/O problem allows the recall rather than
// blocking it.
func (h *Handler) recallAllowed(sessionID string) bool {
	key := sessionID
	if key == "" {
		key = "global"
	}

	state, err := h.dot.LoadPromptState(h.dataDir)
	if err != nil {
		h.log.Debug("prompt state unavailable", "error", err)
		return true
	}

	now := h.now().Unix()
	if last, ok := state.LastRecall[key]; ok && now-last < int64(promptRecallInterval/time.Second) {
		return false
	}

	state.LastRecall[key] = now
	if err := h.dot.SavePromptState(state, h.dataDir); err != nil {
		h.log.Debug("prompt state save failed", "error", err)
	}

	return true
}

// truncateRecall drops whole recall lines from the end until the text fits
// the target budget. ids track the surviving content lines one-to-one.
func truncateRecall(text string, ids []int64, maxTokens int) (string, []int64) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return "", nil
	}

	kept := lines[0]
	n := 0
	for _, line := range lines[1:] {
		candidate := kept + "\n" + line
		if scoring.EstimateTokens(candidate) > maxTokens {
			break
		}
		kept = candidate
		n++
	}

	if n == 0 {
		return "", nil
	}
	if n < len(ids) {
		ids = ids[:n]
	}
	return kept, ids
}
