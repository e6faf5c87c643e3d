// Package scoring holds the pure ranking math: base scores at extraction
// time, live importance at restore time, token estimation, and keyword
// normalization for the text index.
package scoring

import (
	"math"
	"time"

	"github.com/infinitecontext/infctx/pkg/config"
)

const (
	// halfLifeDays is the recency half-life: a memory untouched for seven
	// days is worth half as much as one touched now.
	halfLifeDays = 7.0

	// lengthBonusCap limits how much raw content length can add to a base
	// score, so verbosity never outranks category.
	lengthBonusCap = 0.1

	// bytesPerToken approximates the host model's tokenizer for budget math.
	bytesPerToken = 3.5
)

// ScoreMemory computes the base score for a new memory from its category
// weight plus a small length bonus, clamped to [0, 1].
func ScoreMemory(cfg *config.Config, category, content string) float64 {
	weight := cfg.Weight(category)
	bonus := math.Min(float64(len(content))/500.0, lengthBonusCap)
	return math.Min(1.0, weight+bonus)
}

// ComputeImportance ranks a stored memory for restoration:
//
//	base × recency × frequency
//
// where recency halves every seven idle days and frequency grows with the
// log of the access count. A nil score defaults to 0.5; an explicit zero is
// preserved. Zero-value timestamps (unparseable rows) yield the base alone
// so no NaN can reach the ranking sort.
func ComputeImportance(score *float64, accessCount int, lastAccessed, now time.Time) float64 {
	base := 0.5
	if score != nil {
		base = *score
	}

	if lastAccessed.IsZero() || now.IsZero() {
		return base
	}

	freshnessDays := now.Sub(lastAccessed).Hours() / 24
	if freshnessDays < 0.01 {
		freshnessDays = 0.01
	}

	recency := math.Exp(-math.Ln2 * freshnessDays / halfLifeDays)
	frequency := math.Log2(float64(accessCount)+1) + 1

	return base * recency * frequency
}

// EstimateTokens approximates the token cost of text for budget accounting.
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / bytesPerToken))
}
