package store

import (
	"context"
	"fmt"

	"github.com/roach88/koans/internal/runner"
	"github.com/roach88/koans/internal/value"
)

// RecordRun stores a run result under id and returns the stored run.
// The run and its case outcomes are written in one transaction; seq is
// assigned as one past the highest recorded seq.
func (s *Store) RecordRun(ctx context.Context, id string, paths []string, result *runner.Result) (Run, error) {
	digest, err := result.Digest()
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	if paths == nil {
		paths = []string{}
	}
	pathsJSON, err := value.MarshalCanonical(paths)
	if err != nil {
		return Run{}, fmt.Errorf("record run: marshal paths: %w", err)
	}

	run := Run{
		ID:      id,
		Digest:  digest,
		Paths:   paths,
		Total:   result.Total,
		Passed:  result.Passed,
		Failed:  result.Failed,
		Errored: result.Errored,
		Skipped: result.Skipped,
	}
	if f := result.FirstFailure; f != nil {
		run.FirstLesson = f.Lesson
		run.FirstCase = f.Case
		run.FirstMessage = f.Message
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, digest, paths, total, passed, failed, errored, skipped, first_lesson, first_case, first_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Digest,
		string(pathsJSON),
		run.Total,
		run.Passed,
		run.Failed,
		run.Errored,
		run.Skipped,
		run.FirstLesson,
		run.FirstCase,
		run.FirstMessage,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	for i, c := range result.Cases {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO case_outcomes
			(run_id, position, lesson, case_name, ordinal, path, line, outcome, kind, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			c.Lesson,
			c.Case,
			c.Ordinal,
			c.Path,
			c.Line,
			string(c.Outcome),
			c.Kind,
			c.Message,
		)
		if err != nil {
			return Run{}, fmt.Errorf("record run: case %s/%s: %w", c.Lesson, c.Case, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}
