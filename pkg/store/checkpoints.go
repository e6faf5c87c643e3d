package store

import (
	"database/sql"
	"fmt"
)

// SaveCheckpoint appends a new checkpoint row for (session, transcript).
// Rows are never updated in place; readers take the greatest id.
func (s *Store) SaveCheckpoint(sessionID, transcriptPath string, lastLine int) error {
	_, err := s.db.Exec(`
		INSERT INTO checkpoints (session_id, transcript_path, last_line_number, created_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, transcriptPath, lastLine, nowDB())
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint returns the latest checkpoint for (session, transcript),
// nil when the pair has never been read. Different transcript paths keep
// independent checkpoints within one session.
func (s *Store) GetCheckpoint(sessionID, transcriptPath string) (*Checkpoint, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, transcript_path, last_line_number, created_at
		FROM checkpoints
		WHERE session_id = ? AND transcript_path = ?
		ORDER BY id DESC LIMIT 1`,
		sessionID, transcriptPath)

	var (
		cp      Checkpoint
		created sql.NullString
	)
	err := row.Scan(&cp.ID, &cp.SessionID, &cp.TranscriptPath, &cp.LastLine, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	cp.CreatedAt = timeFromDB(created)
	return &cp, nil
}
