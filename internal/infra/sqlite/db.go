// Package sqlite implements the ledger's storage collaborator on SQLite.
// A single database file holds the singleton ledger row, the accumulated
// rep history, and the display-only drain history.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go driver, no CGO
)

// DB wraps the SQLite handle.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database under dir and applies
// migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, "fitledger.db")
	handle, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; serialize access at the pool level so
	// two sessions race on rows, never on the connection.
	handle.SetMaxOpenConns(1)

	db := &DB{db: handle, path: path}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Singleton ledger row. The primary key doubles as the uniqueness
		// constraint that makes a racing double-insert fail instead of
		// forking state.
		`CREATE TABLE IF NOT EXISTS ledger_state (
			id              TEXT PRIMARY KEY,
			epoch_date      TEXT NOT NULL,
			last_reconciled TEXT NOT NULL,
			balance         INTEGER NOT NULL DEFAULT 0,
			daily_rate      INTEGER NOT NULL DEFAULT 0,
			rewards_balance TEXT NOT NULL DEFAULT '0',
			updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Per-day rep counts, accumulated (same-day increments add up)
		`CREATE TABLE IF NOT EXISTS rep_history (
			rep_date   TEXT PRIMARY KEY,
			reps       INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Per-day applied schedule amounts, overwritten on rewrite
		// (display-only; loss is non-fatal)
		`CREATE TABLE IF NOT EXISTS drain_history (
			drain_date TEXT PRIMARY KEY,
			amount     INTEGER NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
}

// migrate applies all schema statements.
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
