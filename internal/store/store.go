// Package store persists week-grid events in a single SQLite file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daviddao/weekgrid/internal/model"
)

// ErrNotFound is returned when no event has the requested id.
var ErrNotFound = errors.New("event not found")

// Store is a handle on the events database. It is safe for concurrent use;
// writes from other processes are serialized by SQLite.
type Store struct {
	db   *sql.DB
	path string
	loc  *time.Location
}

// New opens (creating if needed) the database at path.
func New(path string) (*Store, error) {
	return Open(context.Background(), path)
}

// Open is New with a context for the initial pragmas and migration.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	// modernc.org/sqlite registers as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, path: path, loc: time.Local}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			start_unixms INTEGER NOT NULL,
			end_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_unixms);`,
		`CREATE INDEX IF NOT EXISTS idx_events_end ON events(end_unixms);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// List returns the events intersecting [from, to), ordered by start.
func (s *Store) List(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_unixms, end_unixms FROM events
		 WHERE start_unixms < ? AND end_unixms > ?
		 ORDER BY start_unixms, end_unixms DESC, id`,
		to.UnixMilli(), from.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		ev, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// All returns every stored event, ordered by start.
func (s *Store) All(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_unixms, end_unixms FROM events ORDER BY start_unixms, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		ev, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Get returns the event with id.
func (s *Store) Get(ctx context.Context, id string) (model.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, start_unixms, end_unixms FROM events WHERE id = ?`, id)
	ev, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return ev, err
}

// Update creates or fully replaces the event with ev.ID. Concurrent writers
// to the same id resolve last-write-wins.
func (s *Store) Update(ctx context.Context, ev model.Event) (model.Event, error) {
	if err := ev.Validate(0); err != nil {
		return model.Event{}, fmt.Errorf("update %q: %w", ev.ID, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(id, title, start_unixms, end_unixms, updated_at_unixms)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			start_unixms = excluded.start_unixms,
			end_unixms = excluded.end_unixms,
			updated_at_unixms = excluded.updated_at_unixms`,
		ev.ID, ev.Title, ev.Start.UnixMilli(), ev.End.UnixMilli(), time.Now().UTC().UnixMilli())
	if err != nil {
		return model.Event{}, fmt.Errorf("update %q: %w", ev.ID, err)
	}
	return ev, nil
}

// Delete removes the event with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(r scanner) (model.Event, error) {
	var (
		ev         model.Event
		start, end int64
	)
	if err := r.Scan(&ev.ID, &ev.Title, &start, &end); err != nil {
		return model.Event{}, err
	}
	ev.Start = time.UnixMilli(start).In(s.loc)
	ev.End = time.UnixMilli(end).In(s.loc)
	return ev, nil
}
