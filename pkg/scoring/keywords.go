package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/infinitecontext/infctx/pkg/config"
)

// maxKeywords caps how many tokens one memory contributes to the text index.
const maxKeywords = 30

// ExtractKeywords normalizes text into the space-separated token list stored
// alongside a memory and fed to the full-text index. Lowercased; anything
// outside [a-z 0-9 а-я ё _ - . /] becomes a separator; tokens shorter than
// three runes and stopwords are dropped; duplicates collapse keeping first
// position. Cyrillic is kept on purpose: transcripts are bilingual often
// enough that stripping it would blind recall.
func ExtractKeywords(cfg *config.Config, text string) string {
	lowered := strings.ToLower(text)

	normalized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r >= 'а' && r <= 'я', r == 'ё':
			return r
		case r == '_', r == '-', r == '.', r == '/':
			return r
		default:
			return ' '
		}
	}, lowered)

	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxKeywords)
	for _, token := range strings.Fields(normalized) {
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		if cfg.IsStopword(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}

	return strings.Join(keywords, " ")
}
