// Package store is the durable layer: memories, their full-text index,
// transcript checkpoints, sessions, and schema metadata in one SQLite file.
// The store exclusively owns the handle; concurrent hook processes serialize
// through WAL and the busy timeout rather than surfacing contention errors.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions tune the github.com/mattn/go-sqlite3 driver per connection:
// WAL so readers never block the writer, NORMAL sync (durability to the OS,
// not the platter), and a 5s busy timeout so overlapping hooks wait instead
// of failing.
const dsnOptions = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON"

// Store wraps one SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

var (
	openMu     sync.Mutex
	openStores = map[string]*Store{}
)

// Open opens (or creates) the database at dbPath, ensuring the parent
// directory and bootstrapping the schema. Opening a path that is already
// open in this process returns the same handle.
func Open(dbPath string) (*Store, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}

	openMu.Lock()
	defer openMu.Unlock()

	if s, ok := openStores[abs]; ok {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", abs+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	for _, pragma := range []string{
		"PRAGMA cache_size = -2000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &Store{db: db, path: abs}
	openStores[abs] = s
	return s, nil
}

// Close releases the handle and drops it from the open registry. Closing an
// already-closed store is a no-op.
func (s *Store) Close() error {
	openMu.Lock()
	defer openMu.Unlock()

	if s.db == nil {
		return nil
	}

	delete(openStores, s.path)
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the absolute database path this store was opened with.
func (s *Store) Path() string {
	return s.path
}
