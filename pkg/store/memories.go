package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/infinitecontext/infctx/pkg/config"
)

// memoryColumns is the canonical column list for all memory SELECTs.
// Order must match scanMemory.
const memoryColumns = `id, project, session_id, category, content, keywords,
	score, created_at, last_accessed, access_count, source_hash, metadata`

// ErrNotFound reports a memory id with no row behind it.
type ErrNotFound struct {
	ID int64
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("memory not found: %d", e.ID)
}

// maxListLimit caps one dashboard page.
const maxListLimit = 200

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func timeToDB(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func timeFromDB(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func nowDB() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func scanMemory(r rowScanner) (Memory, error) {
	var (
		m          Memory
		sessionID  sql.NullString
		keywords   sql.NullString
		score      sql.NullFloat64
		createdAt  sql.NullString
		lastAccess sql.NullString
		sourceHash sql.NullString
		metadata   sql.NullString
	)
	err := r.Scan(&m.ID, &m.Project, &sessionID, &m.Category, &m.Content, &keywords,
		&score, &createdAt, &lastAccess, &m.AccessCount, &sourceHash, &metadata)
	if err != nil {
		return Memory{}, err
	}

	m.SessionID = sessionID.String
	m.Keywords = keywords.String
	// A row without a score ranks from the importance default, not zero.
	m.Score = 0.5
	if score.Valid {
		m.Score = score.Float64
	}
	m.CreatedAt = timeFromDB(createdAt)
	m.LastAccessed = timeFromDB(lastAccess)
	m.SourceHash = sourceHash.String
	if metadata.Valid && metadata.String != "" {
		_ = json.Unmarshal([]byte(metadata.String), &m.Metadata)
	}
	return m, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var out []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// insertMemory runs one insert on e. Returns 0 when an existing row already
// carries m.SourceHash (the UNIQUE constraint absorbs the duplicate).
func insertMemory(e execer, m *Memory) (int64, error) {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var sourceHash any
	if m.SourceHash != "" {
		sourceHash = m.SourceHash
	}

	// Metadata is serialized here and nowhere else; callers hand over the
	// structured value, never a pre-encoded string.
	var metadata any
	if m.Metadata != nil {
		b, err := json.Marshal(m.Metadata)
		if err != nil {
			return 0, fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(b)
	}

	res, err := e.Exec(`
		INSERT OR IGNORE INTO memories (
			project, session_id, category, content, keywords,
			score, created_at, last_accessed, access_count, source_hash, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Project, m.SessionID, m.Category, m.Content, m.Keywords,
		m.Score, timeToDB(createdAt), timeToDB(m.LastAccessed), m.AccessCount,
		sourceHash, metadata,
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return res.LastInsertId()
}

// InsertMemory stores one memory and returns its id, or 0 when a row with
// the same source hash already exists.
func (s *Store) InsertMemory(m *Memory) (int64, error) {
	id, err := insertMemory(s.db, m)
	if err != nil {
		return 0, fmt.Errorf("insert memory: %w", err)
	}
	if id != 0 {
		m.ID = id
	}
	return id, nil
}

// InsertMany stores a batch under one transaction and returns how many rows
// were actually inserted; duplicates count zero. Any failed row rolls back
// the whole batch.
func (s *Store) InsertMany(ms []Memory) (int, error) {
	if len(ms) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin insert batch: %w", err)
	}

	inserted := 0
	for i := range ms {
		id, err := insertMemory(tx, &ms[i])
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert batch row %d: %w", i, err)
		}
		if id != 0 {
			ms[i].ID = id
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert batch: %w", err)
	}
	return inserted, nil
}

// GetMemory fetches one memory by id, nil when absent.
func (s *Store) GetMemory(id int64) (*Memory, error) {
	row := s.db.QueryRow(fmt.Sprintf(`SELECT %s FROM memories WHERE id = ?`, memoryColumns), id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return &m, nil
}

// GetTopMemories returns the highest-scoring memories of a project.
func (s *Store) GetTopMemories(project string, limit int) ([]Memory, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT %s FROM memories WHERE project = ? ORDER BY score DESC, id DESC LIMIT ?`,
		memoryColumns), project, limit)
	if err != nil {
		return nil, fmt.Errorf("top memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// TouchMemories bumps access bookkeeping for the given ids in one
// transaction: access_count+1, last_accessed=now, and an asymptotic score
// bump that cannot cross 1. Missing ids are silent no-ops.
func (s *Store) TouchMemories(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	now := nowDB()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin touch: %w", err)
	}

	for _, id := range ids {
		_, err := tx.Exec(`
			UPDATE memories
			SET access_count = access_count + 1,
			    last_accessed = ?,
			    score = min(1.0, score + 0.02 * (1.0 - score))
			WHERE id = ?`, now, id)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("touch memory %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// DeleteMemory removes one memory; ErrNotFound when the id has no row.
func (s *Store) DeleteMemory(id int64) error {
	res, err := s.db.Exec(`DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound{ID: id}
	}
	return nil
}

// DeleteMemories removes a set of memories and returns how many existed.
func (s *Store) DeleteMemories(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	res, err := s.db.Exec(fmt.Sprintf(`DELETE FROM memories WHERE id IN (%s)`,
		strings.Join(placeholders, ",")), args...)
	if err != nil {
		return 0, fmt.Errorf("delete memories: %w", err)
	}
	return res.RowsAffected()
}

// DecayAndPrune ages the archive: memories untouched for the decay interval
// lose score by the configured factor (never below the floor), then anything
// under the prune threshold is deleted. Returns the delete count.
func (s *Store) DecayAndPrune(cfg *config.Config) (int64, error) {
	days := cfg.DecayIntervalDays
	if days < 1 {
		days = 1
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin decay: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE memories SET score = max(?, score * ?)
		WHERE last_accessed < ?`,
		cfg.ScoreFloor, cfg.DecayFactor, cutoff); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("decay scores: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM memories WHERE score < ?`, cfg.PruneThreshold)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prune decayed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit decay: %w", err)
	}
	return res.RowsAffected()
}

// pruneAgeCutoff resolves the age threshold: unset means 30 days, and the
// window never shrinks under one day.
func pruneAgeCutoff(days int) string {
	if days == 0 {
		days = 30
	}
	if days < 1 {
		days = 1
	}
	return time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
}

// PruneOld deletes never-accessed memories older than the given days.
func (s *Store) PruneOld(days int) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM memories WHERE created_at < ? AND access_count = 0`,
		pruneAgeCutoff(days))
	if err != nil {
		return 0, fmt.Errorf("prune old: %w", err)
	}
	return res.RowsAffected()
}

// CountOld reports how many rows PruneOld would delete.
func (s *Store) CountOld(days int) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM memories WHERE created_at < ? AND access_count = 0`,
		pruneAgeCutoff(days)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count old: %w", err)
	}
	return n, nil
}

// PruneBelowScore deletes memories scoring under the threshold.
func (s *Store) PruneBelowScore(threshold float64) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM memories WHERE score < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("prune below score: %w", err)
	}
	return res.RowsAffected()
}

// CountBelowScore reports how many rows PruneBelowScore would delete.
func (s *Store) CountBelowScore(threshold float64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM memories WHERE score < ?`, threshold).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count below score: %w", err)
	}
	return n, nil
}

// EnforceProjectLimit deletes the lowest-scoring rows of a project until its
// count fits the cap. Returns the delete count.
func (s *Store) EnforceProjectLimit(project string, limit int) (int64, error) {
	if limit < 1 {
		return 0, nil
	}

	res, err := s.db.Exec(`
		DELETE FROM memories WHERE id IN (
			SELECT id FROM memories WHERE project = ?
			ORDER BY score ASC, id ASC
			LIMIT max(0, (SELECT COUNT(*) FROM memories WHERE project = ?) - ?)
		)`, project, project, limit)
	if err != nil {
		return 0, fmt.Errorf("enforce project limit: %w", err)
	}
	return res.RowsAffected()
}

// listSorts whitelists dashboard sort keys against their columns.
var listSorts = map[string]string{
	"score":        "score",
	"created":      "created_at",
	"accessed":     "last_accessed",
	"access_count": "access_count",
	"id":           "id",
}

// ListMemories is the dashboard listing: filtered, sorted, paginated, with
// the unpaged total.
func (s *Store) ListMemories(opts ListOptions) (*ListResult, error) {
	where := []string{"1=1"}
	args := []any{}

	if opts.Project != "" {
		where = append(where, "project = ?")
		args = append(args, opts.Project)
	}
	if opts.Category != "" {
		where = append(where, "category = ?")
		args = append(args, opts.Category)
	}
	if opts.Search != "" {
		if match := ftsQuery(opts.Search); match != "" {
			where = append(where, "id IN (SELECT rowid FROM memories_fts WHERE memories_fts MATCH ?)")
			args = append(args, match)
		}
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memories WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}

	sortCol, ok := listSorts[opts.Sort]
	if !ok {
		sortCol = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(opts.Order, "asc") {
		order = "ASC"
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	q := fmt.Sprintf(`SELECT %s FROM memories WHERE %s ORDER BY %s %s, id DESC LIMIT ? OFFSET ?`,
		memoryColumns, cond, sortCol, order)
	rows, err := s.db.Query(q, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	memories, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}
	if memories == nil {
		memories = []Memory{}
	}

	return &ListResult{Memories: memories, Total: total, Page: page, Limit: limit}, nil
}
