package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/koans/internal/runner"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded run.
type Run struct {
	ID      string   `json:"id"`
	Seq     int64    `json:"seq"`
	Digest  string   `json:"digest"`
	Paths   []string `json:"paths"`
	Total   int      `json:"total"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Errored int      `json:"errored"`
	Skipped int      `json:"skipped"`

	FirstLesson  string `json:"first_lesson,omitempty"`
	FirstCase    string `json:"first_case,omitempty"`
	FirstMessage string `json:"first_message,omitempty"`
}

// CreatedAt recovers the creation time embedded in a UUIDv7 run ID.
// It reports false for IDs that carry no time.
func (r Run) CreatedAt() (time.Time, bool) {
	id, err := uuid.Parse(r.ID)
	if err != nil || id.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC(), true
}

// ListRuns returns up to limit runs, newest first. A limit of zero or
// less returns every run.
//
// Returns an empty slice (not nil) if no runs are recorded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, seq, digest, paths, total, passed, failed, errored, skipped,
		       first_lesson, first_case, first_message
		FROM runs
		ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
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

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, digest, paths, total, passed, failed, errored, skipped,
		       first_lesson, first_case, first_message
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ReadCaseOutcomes returns the case outcomes of a run in execution order.
func (s *Store) ReadCaseOutcomes(ctx context.Context, runID string) ([]runner.CaseResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lesson, case_name, ordinal, path, line, outcome, kind, message
		FROM case_outcomes
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query case outcomes: %w", err)
	}
	defer rows.Close()

	out := []runner.CaseResult{}
	for rows.Next() {
		var c runner.CaseResult
		var outcome string
		if err := rows.Scan(&c.Lesson, &c.Case, &c.Ordinal, &c.Path, &c.Line, &outcome, &c.Kind, &c.Message); err != nil {
			return nil, fmt.Errorf("scan case outcome: %w", err)
		}
		c.Outcome = runner.Outcome(outcome)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case outcomes: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var paths string
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Digest,
		&paths,
		&run.Total,
		&run.Passed,
		&run.Failed,
		&run.Errored,
		&run.Skipped,
		&run.FirstLesson,
		&run.FirstCase,
		&run.FirstMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(paths), &run.Paths); err != nil {
		return Run{}, fmt.Errorf("unmarshal run paths: %w", err)
	}
	return run, nil
}
