package config

// Memory categories. The category is the schema: storage accepts anything,
// but scoring and restoration treat unknown values as notes.
const (
	CategoryArchitecture = "architecture"
	CategoryDecision     = "decision"
	CategoryError        = "error"
	CategoryFinding      = "finding"
	CategoryFileChange   = "file_change"
	CategoryNote         = "note"
)

// Extraction modes.
const (
	ModeRules  = "rules"
	ModeLLM    = "llm"
	ModeHybrid = "hybrid"
)

const (
	defaultMaxRestoreTokens       = 4000
	defaultMaxMemoriesPerRestore  = 20
	defaultMaxPromptRecallResults = 5
	defaultDecayFactor            = 0.95
	defaultDecayIntervalDays      = 1
	defaultPruneThreshold         = 0.05
	defaultScoreFloor             = 0.01
	defaultMaxMemoriesPerProject  = 5000

	defaultDashboardListen = "127.0.0.1:8437"

	// DefaultWeight is the base score weight for unknown categories.
	DefaultWeight = 0.4
)

// defaultStopwords filters keyword extraction. Kept deliberately generic:
// domain terms like "file" or "error" carry signal for recall and stay in.
var defaultStopwords = []string{
	"the", "a", "an", "and", "or", "but", "if", "then", "than", "that",
	"this", "these", "those", "there", "here", "when", "where", "which",
	"who", "whom", "whose", "what", "why", "how", "all", "any", "both",
	"each", "few", "more", "most", "other", "some", "such", "only", "own",
	"same", "too", "very", "just", "also", "not", "nor", "can", "will",
	"would", "could", "should", "may", "might", "must", "shall", "into",
	"onto", "over", "under", "again", "once", "about", "above", "below",
	"between", "through", "during", "before", "after", "with", "without",
	"from", "for", "was", "were", "are", "been", "being", "have", "has",
	"had", "does", "did", "doing", "you", "your", "yours", "they", "them",
	"their", "its", "our", "ours", "his", "her", "hers", "him", "she",
	"let", "lets", "get", "gets", "got", "make", "makes", "made", "want",
	"wants", "need", "needs", "like", "use", "uses", "used", "using",
}

// DefaultCategoryWeights returns the built-in per-category base weights.
func DefaultCategoryWeights() map[string]float64 {
	return map[string]float64{
		CategoryArchitecture: 0.7,
		CategoryDecision:     0.8,
		CategoryError:        0.7,
		CategoryFinding:      0.6,
		CategoryFileChange:   0.5,
		CategoryNote:         0.4,
	}
}

// DefaultStopwords returns a copy of the built-in stopword list.
func DefaultStopwords() []string {
	out := make([]string, len(defaultStopwords))
	copy(out, defaultStopwords)
	return out
}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		MaxRestoreTokens:       defaultMaxRestoreTokens,
		MaxMemoriesPerRestore:  defaultMaxMemoriesPerRestore,
		MaxPromptRecallResults: defaultMaxPromptRecallResults,
		DecayFactor:            defaultDecayFactor,
		DecayIntervalDays:      defaultDecayIntervalDays,
		PruneThreshold:         defaultPruneThreshold,
		ScoreFloor:             defaultScoreFloor,
		MaxMemoriesPerProject:  defaultMaxMemoriesPerProject,
		CategoryWeights:        DefaultCategoryWeights(),
		Stopwords:              DefaultStopwords(),
		Extraction: ExtractionConfig{
			Mode: ModeRules,
		},
		Dashboard: DashboardConfig{
			Listen: defaultDashboardListen,
		},
	}
}
