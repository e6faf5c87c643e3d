// Package restore assembles archived memories back into context text under
// a token budget. Ranking is live importance (recency-decayed, frequency
// boosted), not the stored base score: a fresh low-score fact outranks a
// stale high-score one.
package restore

import (
	"sort"
	"strings"
	"time"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/scoring"
	"github.com/infinitecontext/infctx/pkg/store"
)

const (
	contextHeader = "## Prior Context (restored from archive)"
	promptHeader  = "## Relevant prior context"
)

// sectionOrder fixes the emitted sequence of category sections.
var sectionOrder = []string{
	config.CategoryArchitecture,
	config.CategoryDecision,
	config.CategoryError,
	config.CategoryFinding,
	config.CategoryFileChange,
	config.CategoryNote,
}

var sectionTitles = map[string]string{
	config.CategoryArchitecture: "Architecture & Design",
	config.CategoryDecision:     "Key Decisions",
	config.CategoryError:        "Known Issues",
	config.CategoryFinding:      "Findings",
	config.CategoryFileChange:   "Files Modified",
	config.CategoryNote:         "Notes",
}

// Context renders the restore block for session starts and compactions.
// The running token count covers the top header, each section header on
// first use, and every admitted line; the walk stops at the first memory
// that does not fit. A budget of zero restores nothing. Returned ids are
// the admitted memories in rank order, for access bookkeeping.
func Context(memories []store.Memory, budget int, now time.Time) (string, []int64) {
	if len(memories) == 0 || budget <= 0 {
		return "", nil
	}

	type candidate struct {
		mem  store.Memory
		rank float64
	}
	cands := make([]candidate, 0, len(memories))
	for _, m := range memories {
		score := m.Score
		cands = append(cands, candidate{
			mem:  m,
			rank: scoring.ComputeImportance(&score, m.AccessCount, m.LastAccessed, now),
		})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].rank > cands[j].rank })

	total := scoring.EstimateTokens(contextHeader)
	sections := map[string][]string{}
	var ids []int64

	for _, c := range cands {
		cat := c.mem.Category
		if _, known := sectionTitles[cat]; !known {
			cat = config.CategoryNote
		}

		cost := scoring.EstimateTokens("- " + c.mem.Content + "\n")
		if len(sections[cat]) == 0 {
			cost += scoring.EstimateTokens("### " + sectionTitles[cat])
		}
		if total+cost > budget {
			break
		}

		total += cost
		sections[cat] = append(sections[cat], c.mem.Content)
		ids = append(ids, c.mem.ID)
	}

	if len(ids) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	sb.WriteString("\n")
	for _, cat := range sectionOrder {
		items := sections[cat]
		if len(items) == 0 {
			continue
		}
		sb.WriteString("\n### ")
		sb.WriteString(sectionTitles[cat])
		sb.WriteString("\n")
		for _, item := range items {
			sb.WriteString("- ")
			sb.WriteString(item)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n"), ids
}

// ForPrompt renders per-prompt recall hits as a flat annotated list.
func ForPrompt(memories []store.Memory) (string, []int64) {
	if len(memories) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(promptHeader)
	ids := make([]int64, 0, len(memories))
	for _, m := range memories {
		sb.WriteString("\n- [")
		sb.WriteString(m.Category)
		sb.WriteString("] ")
		sb.WriteString(m.Content)
		ids = append(ids, m.ID)
	}
	return sb.String(), ids
}
