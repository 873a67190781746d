// Package store implements a durable key/value blob store on top of a
// SQLite database opened in WAL mode: every write commits inside one
// transaction before returning, so a crash between ticks never leaves a
// blob partially written.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a key/value blob store keyed by the named blobs of the engine's
// persisted state (current_state, export_history, target_cache, event_log,
// ...).
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) a SQLite-backed store at dbPath. Use
// ":memory:" for an ephemeral store in tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening store database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS blobs (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Put durably writes value (marshalled as JSON) under key, committing the
// write before returning.
func (s *Store) Put(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling blob %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction for %q: %w", key, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing blob %q: %w", key, err)
	}

	return tx.Commit()
}

// Get reads the blob under key into dest (a pointer). Returns found=false
// if the key has never been written.
func (s *Store) Get(key string, dest any) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	row := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key)
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("reading blob %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return true, fmt.Errorf("unmarshalling blob %q: %w", key, err)
	}
	return true, nil
}
