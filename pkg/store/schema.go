package store

import (
	"database/sql"
	"fmt"
)

// schemaVersion is recorded in meta; bootstrap reruns only when the stored
// version is behind.
const schemaVersion = 1

const schemaDDL = `
CREATE TABLE IF NOT EXISTS memories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project TEXT NOT NULL,
  session_id TEXT,
  category TEXT NOT NULL,
  content TEXT NOT NULL,
  keywords TEXT,
  score REAL DEFAULT 0.5,
  created_at TEXT NOT NULL,
  last_accessed TEXT,
  access_count INTEGER NOT NULL DEFAULT 0,
  source_hash TEXT UNIQUE,
  metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project);
CREATE INDEX IF NOT EXISTS idx_memories_project_score ON memories(project, score DESC);

CREATE TABLE IF NOT EXISTS checkpoints (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  transcript_path TEXT NOT NULL,
  last_line_number INTEGER NOT NULL,
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_session ON checkpoints(session_id);

CREATE TABLE IF NOT EXISTS sessions (
  session_id TEXT PRIMARY KEY,
  project TEXT,
  started_at TEXT NOT NULL,
  ended_at TEXT,
  memories_created INTEGER NOT NULL DEFAULT 0,
  compactions INTEGER NOT NULL DEFAULT 0
);
`

// ftsDDL builds the external-content FTS5 index over memories. The triggers
// keep it in lockstep: every live row has exactly one index entry.
const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
  content, keywords,
  content='memories', content_rowid='id'
);
`

var ftsTriggers = []string{
	`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
  INSERT INTO memories_fts(rowid, content, keywords)
  VALUES (NEW.id, NEW.content, NEW.keywords);
END;`,
	`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
  INSERT INTO memories_fts(memories_fts, rowid, content, keywords)
  VALUES ('delete', OLD.id, OLD.content, OLD.keywords);
END;`,
	`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
  INSERT INTO memories_fts(memories_fts, rowid, content, keywords)
  VALUES ('delete', OLD.id, OLD.content, OLD.keywords);
  INSERT INTO memories_fts(rowid, content, keywords)
  VALUES (NEW.id, NEW.content, NEW.keywords);
END;`,
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	var current int
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if _, err := db.Exec(ftsDDL); err != nil {
		return fmt.Errorf("create fts table: %w", err)
	}
	for _, t := range ftsTriggers {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("create fts trigger: %w", err)
		}
	}

	if _, err := db.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}
