// Package cache keeps a small local record of recently viewed work
// items so the server can answer "what was I just looking at" without a
// round trip to the backend.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Entry is one recently viewed work item.
type Entry struct {
	ID           int    `json:"id"`
	Project      string `json:"project,omitempty"`
	Title        string `json:"title"`
	WorkItemType string `json:"work_item_type,omitempty"`
	State        string `json:"state,omitempty"`
	ViewedAt     string `json:"viewed_at"`
}

// Store is the recently-viewed cache backed by SQLite.
type Store struct {
	db      *sql.DB
	maxRows int
	now     func() time.Time
}

// New opens (or creates) the cache database at path, enabling WAL mode
// and running migrations. The parent directory is created if needed.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("cache: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("cache: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, maxRows: 200, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("cache: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS recent_items (
			id             INTEGER NOT NULL,
			project        TEXT NOT NULL DEFAULT '',
			title          TEXT NOT NULL DEFAULT '',
			work_item_type TEXT NOT NULL DEFAULT '',
			state          TEXT NOT NULL DEFAULT '',
			viewed_at      TEXT NOT NULL,
			PRIMARY KEY (id, project)
		);
		CREATE INDEX IF NOT EXISTS idx_recent_viewed_at ON recent_items(viewed_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Touch records that a work item was viewed just now, inserting or
// refreshing its row and pruning the table to the retention cap.
func (s *Store) Touch(e Entry) error {
	// Nanosecond precision keeps ORDER BY viewed_at stable for views
	// landing within the same second.
	viewedAt := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(`
		INSERT INTO recent_items (id, project, title, work_item_type, state, viewed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id, project) DO UPDATE SET
			title = excluded.title,
			work_item_type = excluded.work_item_type,
			state = excluded.state,
			viewed_at = excluded.viewed_at
	`, e.ID, e.Project, e.Title, e.WorkItemType, e.State, viewedAt)
	if err != nil {
		return fmt.Errorf("cache: record view of %d: %w", e.ID, err)
	}
	return s.prune()
}

func (s *Store) prune() error {
	_, err := s.db.Exec(`
		DELETE FROM recent_items WHERE (id, project) NOT IN (
			SELECT id, project FROM recent_items ORDER BY viewed_at DESC LIMIT ?
		)
	`, s.maxRows)
	if err != nil {
		return fmt.Errorf("cache: prune: %w", err)
	}
	return nil
}

// Recent returns the most recently viewed items, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.maxRows {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, project, title, work_item_type, state, viewed_at
		FROM recent_items ORDER BY viewed_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("cache: list recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Project, &e.Title, &e.WorkItemType, &e.State, &e.ViewedAt); err != nil {
			return nil, fmt.Errorf("cache: scan recent row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
