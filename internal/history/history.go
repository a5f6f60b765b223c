// Package history persists past searches in a local SQLite database
// so they can be replayed and inspected later.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/runger/nlfind/internal/query"
)

// defaultListLimit bounds List when the caller does not.
const defaultListLimit = 50

// Entry is one recorded search.
type Entry struct {
	// ID is a UUID assigned when the entry is recorded.
	ID string

	// Timestamp is when the search ran.
	Timestamp time.Time

	// RawInput is what the user typed, before any parsing.
	RawInput string

	// Query is the structured query the search executed.
	Query *query.SearchQuery

	// Backend is the name of the backend that produced the results.
	Backend string

	// ResultCount is the number of records returned after truncation.
	ResultCount int

	// TotalCount is the match count before truncation.
	TotalCount int

	// ElapsedMs is the wall-clock search duration.
	ElapsedMs int64
}

// Store records and retrieves search history in SQLite.
type Store struct {
	db         *sql.DB
	maxEntries int
	closeOnce  sync.Once
	closeErr   error
}

// NewStore opens (creating if needed) the history database at dbPath.
// maxEntries bounds how many searches are retained; zero or negative
// keeps everything. The database is opened with WAL mode enabled.
func NewStore(dbPath string, maxEntries int) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("history database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles concurrency better with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, maxEntries: maxEntries}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
// It is safe to call Close multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.db != nil {
			// Merge the WAL into the main database file before closing.
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

// Record stores one search. A missing ID or Timestamp is filled in.
// After inserting, entries beyond the retention bound are pruned.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e == nil {
		return errors.New("entry cannot be nil")
	}
	if e.RawInput == "" {
		return errors.New("raw input is required")
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	parsed := "{}"
	if e.Query != nil {
		b, err := json.Marshal(e.Query)
		if err != nil {
			return fmt.Errorf("failed to encode query: %w", err)
		}
		parsed = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (
			search_id, ts_unix_ms, raw_input, parsed_json,
			backend, result_count, total_count, elapsed_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.Timestamp.UnixMilli(),
		e.RawInput,
		parsed,
		e.Backend,
		e.ResultCount,
		e.TotalCount,
		e.ElapsedMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("search with id %s already exists", e.ID)
		}
		return fmt.Errorf("failed to record search: %w", err)
	}

	return s.prune(ctx)
}

// List returns the most recent searches, newest first. A limit of
// zero or less applies a default bound.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT search_id, ts_unix_ms, raw_input, parsed_json,
		       backend, result_count, total_count, elapsed_ms
		FROM searches
		ORDER BY ts_unix_ms DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var tsMs int64
		var parsed string

		err := rows.Scan(
			&e.ID,
			&tsMs,
			&e.RawInput,
			&parsed,
			&e.Backend,
			&e.ResultCount,
			&e.TotalCount,
			&e.ElapsedMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		e.Timestamp = time.UnixMilli(tsMs)
		if parsed != "" && parsed != "{}" {
			var q query.SearchQuery
			if err := json.Unmarshal([]byte(parsed), &q); err == nil {
				e.Query = &q
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// Count returns the number of stored searches.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM searches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Clear deletes all stored searches.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM searches`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// prune drops the oldest entries beyond the retention bound.
func (s *Store) prune(ctx context.Context) error {
	if s.maxEntries <= 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM searches
		WHERE id NOT IN (
			SELECT id FROM searches
			ORDER BY ts_unix_ms DESC, id DESC
			LIMIT ?
		)
	`, s.maxEntries)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

// migrate runs database migrations to ensure the schema is up to date.
func (s *Store) migrate(ctx context.Context) error {
	currentVersion := 0
	row := s.db.QueryRowContext(ctx, `
		SELECT version FROM schema_meta ORDER BY version DESC LIMIT 1
	`)
	if err := row.Scan(&currentVersion); err != nil {
		if err == sql.ErrNoRows || isTableNotFoundError(err) {
			currentVersion = 0
		} else {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{version: 1, sql: migrationV1},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.version, err)
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO schema_meta (version, applied_at_unix_ms)
			VALUES (?, ?)
		`, m.version, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// isTableNotFoundError checks if the error indicates a missing table.
func isTableNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "does not exist")
}

// isDuplicateKeyError checks if the error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "unique constraint")
}

// migrationV1 creates the initial schema.
const migrationV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_meta (
  version INTEGER PRIMARY KEY,
  applied_at_unix_ms INTEGER NOT NULL
);

-- Recorded searches
CREATE TABLE IF NOT EXISTS searches (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  search_id TEXT NOT NULL UNIQUE,
  ts_unix_ms INTEGER NOT NULL,
  raw_input TEXT NOT NULL,
  parsed_json TEXT NOT NULL DEFAULT '{}',
  backend TEXT NOT NULL DEFAULT '',
  result_count INTEGER NOT NULL DEFAULT 0,
  total_count INTEGER NOT NULL DEFAULT 0,
  elapsed_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_searches_ts ON searches(ts_unix_ms DESC);
`
