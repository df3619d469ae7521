// Package runlog persists a per-output export history to SQLite, one row per
// runner execution keyed by run ID. It exists so CI pipelines can query what
// a batch actually produced after the host process has exited.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// Schema for the export_runs table. Call Store.Init() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS export_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	output TEXT NOT NULL,
	output_type TEXT NOT NULL,
	filename TEXT NOT NULL,
	status TEXT NOT NULL,
	detail TEXT,
	duration_us INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_export_runs_run ON export_runs(run_id);
`

// Entry is one recorded runner execution.
type Entry struct {
	RunID      string
	Output     string
	OutputType string
	Filename   string
	Status     string // ok | failed | aborted
	Detail     string
	Duration   time.Duration
}

// Store persists export run entries.
type Store struct {
	db *sql.DB
}

// NewStore creates a store backed by the given database connection.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Init creates the export_runs table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Record inserts one entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_runs (
			run_id, output, output_type, filename,
			status, detail, duration_us, created_at
		) VALUES (?,?,?,?,?,?,?,?)`,
		e.RunID, e.Output, e.OutputType, e.Filename,
		e.Status, e.Detail, e.Duration.Microseconds(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("runlog: record: %w", err)
	}
	return nil
}

// Runs returns the entries recorded under a run ID, in insertion order.
func (s *Store) Runs(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, output, output_type, filename, status, detail, duration_us
		FROM export_runs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("runlog: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var us int64
		if err := rows.Scan(&e.RunID, &e.Output, &e.OutputType, &e.Filename,
			&e.Status, &e.Detail, &us); err != nil {
			return nil, fmt.Errorf("runlog: scan: %w", err)
		}
		e.Duration = time.Duration(us) * time.Microsecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Open opens the run log database at path, creating parent directories and
// applying the production pragmas.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("runlog: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("runlog: %s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: ping: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory run log database for testing. It sets
// MaxOpenConns(1) so every query hits the same in-memory database and
// registers t.Cleanup to close it.
func OpenMemory(t testing.TB) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("runlog.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
