// Package store persists sweep results in a SQLite database so that runs
// can be compared across invocations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
)

// Sweep status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a sweep id is unknown.
var ErrNotFound = errors.New("sweep not found")

// Sweep describes one invocation.
type Sweep struct {
	ID         int64
	App        string
	Dir        string
	Mode       string
	Seed       uint64
	Trials     int
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Sample is the extracted result of one task.
type Sample struct {
	Task        string
	Layout      layout.Layout
	Concurrency int
	Trial       int
	Elapsed     float64
	Events      int64
	Rate        float64
}

// Store is a SQLite-backed result store.
type Store struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	stmt, err := db.Prepare(`
		INSERT INTO samples (
			sweep_id, task, components, events_per_component, concurrency,
			trial, elapsed, events, rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	s.insertStmt = stmt

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sweeps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		app TEXT NOT NULL,
		dir TEXT NOT NULL,
		mode TEXT NOT NULL,
		seed TEXT NOT NULL, -- uint64 does not fit INTEGER
		trials INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sweep_id INTEGER NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
		task TEXT NOT NULL,
		components INTEGER NOT NULL,
		events_per_component INTEGER NOT NULL,
		concurrency INTEGER NOT NULL,
		trial INTEGER NOT NULL,
		elapsed REAL NOT NULL,
		events INTEGER NOT NULL,
		rate REAL NOT NULL,
		UNIQUE (sweep_id, task)
	);

	CREATE INDEX IF NOT EXISTS idx_samples_sweep ON samples(sweep_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// BeginSweep records a new sweep in the running state and returns its id.
func (s *Store) BeginSweep(ctx context.Context, sw Sweep) (int64, error) {
	if sw.StartedAt.IsZero() {
		sw.StartedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sweeps (app, dir, mode, seed, trials, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sw.App, sw.Dir, sw.Mode, fmt.Sprint(sw.Seed), sw.Trials, StatusRunning, sw.StartedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert sweep: %w", err)
	}
	return res.LastInsertId()
}

// RecordSample stores one task result of a sweep.
func (s *Store) RecordSample(ctx context.Context, sweepID int64, smp Sample) error {
	_, err := s.insertStmt.ExecContext(ctx,
		sweepID, smp.Task, smp.Layout.Components, smp.Layout.EventsPerComponent,
		smp.Concurrency, smp.Trial, smp.Elapsed, smp.Events, smp.Rate,
	)
	if err != nil {
		return fmt.Errorf("insert sample %s: %w", smp.Task, err)
	}
	return nil
}

// FinishSweep marks a sweep as finished with the given status.
func (s *Store) FinishSweep(ctx context.Context, sweepID int64, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sweeps SET status = ?, finished_at = ? WHERE id = ?
	`, status, time.Now().UTC(), sweepID)
	if err != nil {
		return fmt.Errorf("update sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sweep: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sweep %d: %w", sweepID, ErrNotFound)
	}
	return nil
}

// Sweep loads a sweep by id.
func (s *Store) Sweep(ctx context.Context, sweepID int64) (Sweep, error) {
	var (
		sw       Sweep
		seed     string
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, app, dir, mode, seed, trials, status, started_at, finished_at
		FROM sweeps WHERE id = ?
	`, sweepID).Scan(&sw.ID, &sw.App, &sw.Dir, &sw.Mode, &seed, &sw.Trials, &sw.Status, &sw.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return Sweep{}, fmt.Errorf("sweep %d: %w", sweepID, ErrNotFound)
	}
	if err != nil {
		return Sweep{}, fmt.Errorf("query sweep: %w", err)
	}
	if _, err := fmt.Sscan(seed, &sw.Seed); err != nil {
		return Sweep{}, fmt.Errorf("sweep %d: malformed seed %q: %w", sweepID, seed, err)
	}
	if finished.Valid {
		sw.FinishedAt = finished.Time
	}
	return sw, nil
}

// Samples returns the samples of a sweep ordered by task name.
func (s *Store) Samples(ctx context.Context, sweepID int64) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task, components, events_per_component, concurrency, trial, elapsed, events, rate
		FROM samples WHERE sweep_id = ? ORDER BY task
	`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.Task, &smp.Layout.Components, &smp.Layout.EventsPerComponent,
			&smp.Concurrency, &smp.Trial, &smp.Elapsed, &smp.Events, &smp.Rate); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}
