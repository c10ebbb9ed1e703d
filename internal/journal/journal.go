// Package journal keeps a best-effort SQLite history of fix/undo runs.
// Journal failures never fail the operation they describe; the patch result
// on disk is the source of truth, the journal is operator convenience.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one recorded run.
type Entry struct {
	ID         int64
	RunID      string
	Command    string
	Success    bool
	Message    string
	BackupPath string
	AppVersion string
	CreatedAt  time.Time
}

// Journal wraps the history database.
type Journal struct {
	db   *sql.DB
	path string
}

// Open creates the database (and its directory) on demand and applies the
// schema.
func Open(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// busy_timeout first so later statements wait on locks instead of
	// failing fast.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure journal: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}

	return &Journal{db: db, path: dbPath}, nil
}

// NewRunID returns a fresh identifier tying together the records of one
// invocation.
func NewRunID() string {
	return uuid.NewString()
}

// Record appends one entry.
func (j *Journal) Record(e Entry) error {
	_, err := j.db.Exec(
		`INSERT INTO runs (run_id, command, success, message, backup_path, app_version) VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Command, e.Success, e.Message, e.BackupPath, e.AppVersion,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, run_id, command, success, message, backup_path, app_version, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Command, &e.Success, &e.Message, &e.BackupPath, &e.AppVersion, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
