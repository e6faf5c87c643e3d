package store

import (
	"fmt"
	"strings"
)

// ftsMetaReplacer strips the FTS5 query-syntax metacharacters from tokens.
var ftsMetaReplacer = strings.NewReplacer(
	"*", "", "^", "", "{", "", "}", "", "[", "", "]", "",
	"(", "", ")", "", ":", "", "~", "", "!", "",
)

// ftsQuery sanitizes user input into an FTS5 expression: tokens longer than
// one character, stripped of index syntax, quote-escaped, phrase-wrapped,
// OR-joined. Untrusted text never reaches the index parser bare; words like
// AND or NOT search as words instead of acting as operators.
func ftsQuery(query string) string {
	var parts []string
	for _, tok := range strings.Fields(query) {
		if len(tok) <= 1 {
			continue
		}
		tok = ftsMetaReplacer.Replace(tok)
		if tok == "" {
			continue
		}
		tok = strings.ReplaceAll(tok, `"`, `""`)
		parts = append(parts, `"`+tok+`"`)
	}
	return strings.Join(parts, " OR ")
}

// Search runs a full-text query over content and keywords, best match
// first, optionally restricted to one project. Queries that sanitize to
// nothing, and queries the index cannot parse, return empty rather than
// erroring; search is advisory inside hooks.
func (s *Store) Search(query, project string, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 10
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	q := `
		SELECT m.id, m.project, m.session_id, m.category, m.content, m.keywords,
		       m.score, m.created_at, m.last_accessed, m.access_count, m.source_hash, m.metadata
		FROM memories_fts
		JOIN memories m ON m.id = memories_fts.rowid
		WHERE memories_fts MATCH ?`
	args := []any{match}
	if project != "" {
		q += ` AND m.project = ?`
		args = append(args, project)
	}
	q += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		if isFTSParseError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("search memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// isFTSParseError spots FTS5 query-syntax complaints, which surface as plain
// sqlite errors with an "fts5" marker in the message.
func isFTSParseError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5") || strings.Contains(msg, "malformed MATCH")
}
