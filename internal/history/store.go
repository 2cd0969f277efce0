// Package history persists per-run sync summaries backed by SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status labels a recorded run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Record summarizes one sync run.
type Record struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     Status
	Favorited  int
	Transcoded int
	Deleted    int
	Skipped    int
	Covers     int
	Detail     string
	Failures   []FailureRecord
}

// FailureRecord describes one per-item failure within a run.
type FailureRecord struct {
	Kind    string
	Subject string
	Detail  string
}

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at the given path and
// applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordRun inserts one run summary with its failures. A missing ID is
// assigned. The record's ID is returned for correlation with logs.
func (s *Store) RecordRun(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, status,
            favorited, transcoded, deleted, skipped, covers, detail
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(rec.Status),
		rec.Favorited,
		rec.Transcoded,
		rec.Deleted,
		rec.Skipped,
		rec.Covers,
		rec.Detail,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, failure := range rec.Failures {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO run_failures (run_id, kind, subject, detail) VALUES (?, ?, ?, ?)",
			rec.ID,
			failure.Kind,
			failure.Subject,
			failure.Detail,
		); err != nil {
			return "", fmt.Errorf("insert run failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return rec.ID, nil
}

// ListRecent returns up to limit runs, newest first, with their failures.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, started_at, finished_at, status,
            favorited, transcoded, deleted, skipped, covers, COALESCE(detail, '')
        FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var started, finished, status string
		if err := rows.Scan(
			&rec.ID, &started, &finished, &status,
			&rec.Favorited, &rec.Transcoded, &rec.Deleted, &rec.Skipped, &rec.Covers, &rec.Detail,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Status = Status(status)
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range records {
		failures, err := s.runFailures(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Failures = failures
	}
	return records, nil
}

func (s *Store) runFailures(ctx context.Context, runID string) ([]FailureRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT kind, subject, detail FROM run_failures WHERE run_id = ?",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run failures: %w", err)
	}
	defer rows.Close()

	var failures []FailureRecord
	for rows.Next() {
		var failure FailureRecord
		if err := rows.Scan(&failure.Kind, &failure.Subject, &failure.Detail); err != nil {
			return nil, fmt.Errorf("scan run failure: %w", err)
		}
		failures = append(failures, failure)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run failures: %w", err)
	}
	return failures, nil
}
