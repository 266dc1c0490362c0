package occupancy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoObservation means the store has never seen a count for the scope.
var ErrNoObservation = errors.New("no occupancy observation")

// Store persists occupancy counts in SQLite. It keeps the latest count per
// (lot, floor, zone) scope plus an append-only observation history, so a
// deployment polling real sensors can serve the engine from disk.
type Store struct {
	db *sql.DB
}

// NewStore opens (and migrates) the occupancy database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open occupancy db: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS occupancy_counts (
			lot_id TEXT NOT NULL,
			floor TEXT NOT NULL,
			zone TEXT NOT NULL,
			remaining INTEGER NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (lot_id, floor, zone)
		)`,
		`CREATE TABLE IF NOT EXISTS occupancy_observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lot_id TEXT NOT NULL,
			floor TEXT NOT NULL,
			zone TEXT NOT NULL,
			remaining INTEGER NOT NULL,
			observed_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_lot_time
			ON occupancy_observations (lot_id, observed_at)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create occupancy tables: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Remaining returns the latest recorded count for the scope.
func (s *Store) Remaining(ctx context.Context, lotID, floor, zone string, _ TimeRange) (int, error) {
	var remaining int
	err := s.db.QueryRowContext(ctx,
		`SELECT remaining FROM occupancy_counts WHERE lot_id = ? AND floor = ? AND zone = ?`,
		lotID, floor, zone,
	).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s/%s/%s", ErrNoObservation, lotID, floor, zone)
	}
	if err != nil {
		return 0, fmt.Errorf("query occupancy: %w", err)
	}
	return remaining, nil
}

// Record upserts the latest count for the scope and appends to history.
func (s *Store) Record(ctx context.Context, lotID, floor, zone string, remaining int, observedAt time.Time) error {
	if remaining < 0 {
		remaining = 0
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin occupancy tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO occupancy_counts (lot_id, floor, zone, remaining, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (lot_id, floor, zone)
		 DO UPDATE SET remaining = excluded.remaining, updated_at = excluded.updated_at`,
		lotID, floor, zone, remaining, observedAt,
	); err != nil {
		return fmt.Errorf("upsert occupancy count: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO occupancy_observations (lot_id, floor, zone, remaining, observed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		lotID, floor, zone, remaining, observedAt,
	); err != nil {
		return fmt.Errorf("insert occupancy observation: %w", err)
	}

	return tx.Commit()
}

// Observation is one historical occupancy reading.
type Observation struct {
	LotID      string
	Floor      string
	Zone       string
	Remaining  int
	ObservedAt time.Time
}

// History lists observations for a lot since the given time, oldest first.
func (s *Store) History(ctx context.Context, lotID string, since time.Time) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lot_id, floor, zone, remaining, observed_at
		 FROM occupancy_observations
		 WHERE lot_id = ? AND observed_at >= ?
		 ORDER BY observed_at ASC`,
		lotID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query occupancy history: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.LotID, &o.Floor, &o.Zone, &o.Remaining, &o.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan occupancy observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
