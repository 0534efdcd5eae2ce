// Package store persists completed simulation runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ikiru/npvsim/sim"
)

// ErrNotFound is returned when a run ID is not in the store.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	created_at        INTEGER NOT NULL,
	seed              INTEGER NOT NULL,
	trials            INTEGER NOT NULL,
	horizon_periods   INTEGER NOT NULL,
	workers           INTEGER NOT NULL,
	mean              REAL NOT NULL,
	std               REAL NOT NULL,
	min               REAL NOT NULL,
	max               REAL NOT NULL,
	prob_loss         REAL NOT NULL,
	skewness          REAL NOT NULL,
	per_trial_streams INTEGER NOT NULL,
	assumptions       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_percentiles (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	label  TEXT NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (run_id, label)
);
CREATE TABLE IF NOT EXISTS run_outcomes (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	trial         INTEGER NOT NULL,
	present_value REAL NOT NULL,
	PRIMARY KEY (run_id, trial)
);
`

// Store persists runs in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// RunRecord is the stored summary of one run.
type RunRecord struct {
	ID             string
	CreatedAt      time.Time
	Seed           int64
	Trials         int
	HorizonPeriods int
	Workers        int
	Mean           float64
	Std            float64
	Min            float64
	Max            float64
	ProbLoss       float64
	Skewness       float64
	Percentiles    map[string]float64
	Assumptions    sim.AssumptionSet

	// PerTrialStreams records the stream mode; with Seed it identifies the
	// random streams the run drew from.
	PerTrialStreams bool
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite run store and creates its tables. The path may not
// contain '?' or '#', which the driver reads as DSN delimiters.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if strings.ContainsAny(path, "?#") {
		return nil, fmt.Errorf("storage path %q must not contain '?' or '#'", path)
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun stores a completed result, its percentiles, every outcome and the
// assumption set it was produced from, in one transaction.
func (s *Store) SaveRun(ctx context.Context, r *sim.Result, a sim.AssumptionSet) error {
	if r == nil {
		return fmt.Errorf("result is required")
	}
	assumptions, err := sim.MarshalAssumptions(a)
	if err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, toMillis(time.Now()), r.Seed, r.Trials, r.HorizonPeriods, r.Workers,
		r.Mean, r.Std, r.Min, r.Max, r.ProbLoss, r.Skewness, r.PerTrialStreams, string(assumptions),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for label, value := range r.Summary.Percentiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_percentiles (run_id, label, value) VALUES (?, ?, ?)`,
			r.RunID, label, value,
		); err != nil {
			return fmt.Errorf("insert percentile %s: %w", label, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_outcomes (run_id, trial, present_value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcomes: %w", err)
	}
	defer stmt.Close()
	for i, pv := range r.Outcomes() {
		if _, err := stmt.ExecContext(ctx, r.RunID, i, pv); err != nil {
			return fmt.Errorf("insert outcome %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const runColumns = `id, created_at, seed, trials, horizon_periods, workers, mean, std, min, max, prob_loss, skewness, per_trial_streams, assumptions`

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		rec         RunRecord
		createdAt   int64
		assumptions string
	)
	if err := row.Scan(&rec.ID, &createdAt, &rec.Seed, &rec.Trials, &rec.HorizonPeriods, &rec.Workers,
		&rec.Mean, &rec.Std, &rec.Min, &rec.Max, &rec.ProbLoss, &rec.Skewness, &rec.PerTrialStreams, &assumptions); err != nil {
		return RunRecord{}, err
	}
	rec.CreatedAt = fromMillis(createdAt)
	a, err := sim.ParseAssumptions([]byte(assumptions))
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s: %w", rec.ID, err)
	}
	rec.Assumptions = a
	return rec, nil
}

// GetRun loads one run with its percentiles.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	if rec.Percentiles, err = s.percentiles(ctx, id); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs first, at most limit of them.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	for i := range out {
		if out[i].Percentiles, err = s.percentiles(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Outcomes returns the stored present values of a run in trial order.
func (s *Store) Outcomes(ctx context.Context, id string) ([]float64, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT present_value FROM run_outcomes WHERE run_id = ? ORDER BY trial`, id)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return out, nil
}

func (s *Store) percentiles(ctx context.Context, id string) (map[string]float64, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT label, value FROM run_percentiles WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query percentiles: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			label string
			value float64
		)
		if err := rows.Scan(&label, &value); err != nil {
			return nil, fmt.Errorf("scan percentile: %w", err)
		}
		out[label] = value
	}
	return out, rows.Err()
}
