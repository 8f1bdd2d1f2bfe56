// Package storage persists labeled rows and run summaries in a SQLite file.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStorage wraps a single-connection SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage opens (or creates) the database at dbPath. Call Migrate
// before use.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := requireValue("database path", dbPath); err != nil {
		return nil, err
	}

	if dbPath != MemoryPath {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Run is one labeling run recorded in the database.
type Run struct {
	StartedAt   time.Time
	FinishedAt  *time.Time
	ID          string
	Input       string
	Summary     string // JSON, empty until the run finishes
	Strictness  float64
	TauHigh     float64
	TauLow      float64
	Rows        int
	ErrorRows   int
	Malformed   int
	Interrupted bool
}

// RunResult carries the totals written when a run ends.
type RunResult struct {
	FinishedAt  time.Time
	ID          string
	Summary     []byte
	Rows        int
	ErrorRows   int
	Malformed   int
	Interrupted bool
}

// BeginRun records the start of a run. Rows written for run.ID reference it.
func (s *SQLiteStorage) BeginRun(ctx context.Context, run Run) error {
	if err := requireRun(ctx, run.ID); err != nil {
		return err
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, input, strictness, tau_high, tau_low, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input, run.Strictness, run.TauHigh, run.TauLow, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stores the final totals and summary of a run.
func (s *SQLiteStorage) FinishRun(ctx context.Context, result RunResult) error {
	if err := requireRun(ctx, result.ID); err != nil {
		return err
	}
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, row_count = ?, error_rows = ?, malformed = ?, interrupted = ?, summary = ?
		WHERE id = ?`,
		result.FinishedAt, result.Rows, result.ErrorRows, result.Malformed, result.Interrupted,
		string(result.Summary), result.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", result.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", result.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, result.ID)
	}
	return nil
}

// ListRuns returns every recorded run, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context) ([]Run, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, strictness, tau_high, tau_low, started_at, finished_at,
		       row_count, error_rows, malformed, interrupted, COALESCE(summary, '')
		FROM runs
		ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by id.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := requireRun(ctx, id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, input, strictness, tau_high, tau_low, started_at, finished_at,
		       row_count, error_rows, malformed, interrupted, COALESCE(summary, '')
		FROM runs
		WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run      Run
		finished sql.NullTime
	)
	err := sc.Scan(&run.ID, &run.Input, &run.Strictness, &run.TauHigh, &run.TauLow, &run.StartedAt,
		&finished, &run.Rows, &run.ErrorRows, &run.Malformed, &run.Interrupted, &run.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

// LabelCounts returns the number of rows per label_str for a run.
func (s *SQLiteStorage) LabelCounts(ctx context.Context, runID string) (map[string]int, error) {
	if err := requireRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT label_str, COUNT(*) FROM labels WHERE run_id = ? GROUP BY label_str`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count labels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts[label] = n
	}
	return counts, rows.Err()
}
