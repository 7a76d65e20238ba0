package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alexis-ROYER/tsd-default-export/internal/harness"
	"github.com/Alexis-ROYER/tsd-default-export/internal/matrix"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run summarizes one recorded harness run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
}

// NewRunID returns a time-ordered run id.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SaveRun records run and its cases atomically. Total, Passed and Failed
// are recomputed from cases. An empty run.ID is replaced by NewRunID.
func (s *Store) SaveRun(ctx context.Context, run *Run, cases []harness.TestCase) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	run.Total, run.Passed, run.Failed = len(cases), 0, 0
	for i := range cases {
		if cases[i].Passed() {
			run.Passed++
		} else {
			run.Failed++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, total, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Total, run.Passed, run.Failed)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cases (
			run_id, case_id, js, dts, ts,
			tsc_target, tsc_module_interop, tsc_module, node_opts,
			result, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare case insert: %w", err)
	}
	defer stmt.Close()

	for i := range cases {
		tc := &cases[i]
		_, err := stmt.ExecContext(ctx,
			run.ID, tc.ID, tc.JS, tc.DTS, tc.TS,
			tc.TscTarget, tc.TscModuleInterop, tc.TscModule, tc.NodeOpts,
			string(tc.Result), tc.Error,
		)
		if err != nil {
			return fmt.Errorf("insert case %d: %w", tc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns every recorded run, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, total, passed, failed
		FROM runs
		ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given id or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, total, passed, failed
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Cases returns the cases of a run ordered by case id. With onlyFailed set
// passing cases are left out.
func (s *Store) Cases(ctx context.Context, runID string, onlyFailed bool) ([]harness.TestCase, error) {
	query := `
		SELECT case_id, js, dts, ts,
			tsc_target, tsc_module_interop, tsc_module, node_opts,
			result, error
		FROM cases
		WHERE run_id = ?`
	args := []any{runID}
	if onlyFailed {
		query += ` AND result = ?`
		args = append(args, string(harness.Fail))
	}
	query += ` ORDER BY case_id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cases of run %s: %w", runID, err)
	}
	defer rows.Close()

	var cases []harness.TestCase
	for rows.Next() {
		var (
			tc     harness.TestCase
			o      matrix.Options
			result string
		)
		err := rows.Scan(&tc.ID, &o.JS, &o.DTS, &o.TS,
			&o.TscTarget, &o.TscModuleInterop, &o.TscModule, &o.NodeOpts,
			&result, &tc.Error)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		tc.Options = o
		tc.Result = harness.Result(result)
		cases = append(cases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run              Run
		started, finished string
	)
	if err := sc.Scan(&run.ID, &started, &finished, &run.Total, &run.Passed, &run.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	return run, nil
}

// timeLayout has fixed width so that text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
