package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertSession records a session's existence, refreshing the project on
// repeat calls. started_at is set once and kept.
func (s *Store) UpsertSession(sessionID, project string, startedAt time.Time) error {
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, project, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET project = excluded.project`,
		sessionID, project, timeToDB(startedAt))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// IncrSessionMemories adds to a session's created-memory counter. Unknown
// sessions are silent no-ops.
func (s *Store) IncrSessionMemories(sessionID string, n int) error {
	if n == 0 {
		return nil
	}
	_, err := s.db.Exec(`UPDATE sessions SET memories_created = memories_created + ? WHERE session_id = ?`,
		n, sessionID)
	if err != nil {
		return fmt.Errorf("count session memories: %w", err)
	}
	return nil
}

// IncrSessionCompactions bumps a session's compaction counter.
func (s *Store) IncrSessionCompactions(sessionID string) error {
	_, err := s.db.Exec(`UPDATE sessions SET compactions = compactions + 1 WHERE session_id = ?`,
		sessionID)
	if err != nil {
		return fmt.Errorf("count session compactions: %w", err)
	}
	return nil
}

// EndSession marks a session closed.
func (s *Store) EndSession(sessionID string, endedAt time.Time) error {
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
		timeToDB(endedAt), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// AllSessions returns every session, newest first.
func (s *Store) AllSessions() ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT session_id, project, started_at, ended_at, memories_created, compactions
		FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess    Session
			project sql.NullString
			started sql.NullString
			ended   sql.NullString
		)
		if err := rows.Scan(&sess.SessionID, &project, &started, &ended,
			&sess.MemoriesCreated, &sess.Compactions); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Project = project.String
		sess.StartedAt = timeFromDB(started)
		if ended.Valid {
			t := timeFromDB(ended)
			sess.EndedAt = &t
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
