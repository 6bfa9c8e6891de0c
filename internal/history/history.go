// Package history keeps a ledger of past runs in a SQLite database inside
// the storage directory, one row per account per run. It exists so the user
// can answer "when did I last import this account, and how many rows came
// through" without digging through the dated output folders.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	run_date    TEXT NOT NULL,
	account     TEXT NOT NULL,
	transactions INTEGER NOT NULL,
	recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_account ON runs(account);
`

// Record is one account's outcome in one run.
type Record struct {
	RunID        string
	RunDate      string
	Account      string
	Transactions int
	RecordedAt   time.Time
}

// Store manages the run ledger.
type Store struct {
	db *sql.DB
}

// Open opens the ledger database at dbPath, creating the schema if needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the ledger database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun writes one ledger row per account, all sharing a fresh run id,
// inside a single transaction so a run is either fully recorded or not at
// all.
func (s *Store) RecordRun(today civil.Date, counts map[string]int) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin history transaction: %w", err)
	}

	const query = `INSERT INTO runs (run_id, run_date, account, transactions) VALUES (?, ?, ?, ?)`
	for account, count := range counts {
		if _, err := tx.Exec(query, runID, today.String(), account, count); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("failed to record run for account %q: %w", account, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit history transaction: %w", err)
	}
	return runID, nil
}

// Runs returns the most recent ledger rows, newest first.
func (s *Store) Runs(limit int) ([]Record, error) {
	const query = `
		SELECT run_id, run_date, account, transactions, recorded_at
		FROM runs ORDER BY id DESC LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.RunID, &r.RunDate, &r.Account, &r.Transactions, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run history row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run history: %w", err)
	}
	return records, nil
}

// LastRun returns the most recent run date recorded for an account, or the
// empty string if the account has never been imported.
func (s *Store) LastRun(account string) (string, error) {
	const query = `SELECT run_date FROM runs WHERE account = ? ORDER BY id DESC LIMIT 1`
	var date string
	err := s.db.QueryRow(query, account).Scan(&date)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query last run for %q: %w", account, err)
	}
	return date, nil
}
