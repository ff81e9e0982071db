package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
var ErrDatabaseOpenFailed = errors.New("could not open history database")

// Run records one completed navigation build.
type Run struct {
	ID          string
	Output      string // virtual output path the run wrote
	Fingerprint string // sha256 of the annotated source, empty for header-only runs
	Entries     int
	Duration    time.Duration
	Created     time.Time
}

// Store persists build runs in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a run-history store. Use ":memory:" for an in-memory database,
// or a file path for persistent storage.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOpenFailed, err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		output TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		entries INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_output ON runs(output);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a completed run.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := run.Created
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, output, fingerprint, entries, duration_ms, created) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Output, run.Fingerprint, run.Entries, run.Duration.Milliseconds(), created.Unix())
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Last returns the most recent run for the given output path, if any.
func (s *Store) Last(ctx context.Context, output string) (*Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, output, fingerprint, entries, duration_ms, created
		 FROM runs WHERE output = ? ORDER BY created DESC, rowid DESC LIMIT 1`, output)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query last run: %w", err)
	}
	return run, true, nil
}

// List returns up to limit runs, newest first. An empty output matches all
// outputs; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, output string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, output, fingerprint, entries, duration_ms, created FROM runs`
	args := []any{}
	if output != "" {
		query += ` WHERE output = ?`
		args = append(args, output)
	}
	query += ` ORDER BY created DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var durationMS, created int64
	if err := row.Scan(&run.ID, &run.Output, &run.Fingerprint, &run.Entries, &durationMS, &created); err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Created = time.Unix(created, 0)
	return &run, nil
}
