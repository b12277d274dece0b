package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/koans/internal/report"
	"github.com/roach88/koans/internal/runner"
	"github.com/roach88/koans/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// RunDetail is a recorded run with its case outcomes.
type RunDetail struct {
	store.Run
	Cases []runner.CaseResult `json:"cases"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List runs recorded with "koans run --history", newest first, or show the
case outcomes of one run.

Examples:
  koans history --db ~/.koans.db
  koans history --db ~/.koans.db --limit 5
  koans history --db ~/.koans.db 0192f0c4-5b7e-7c3a-9d1e-2f4a6b8c0d1e`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database (default KOANS_HISTORY_DB)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "maximum number of runs to list (0 for all)")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.config().HistoryDB
	}
	if dbPath == "" {
		return fail(formatter, ExitCommandError, ErrCodeHistory, "no history database: pass --db or set KOANS_HISTORY_DB", nil)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}
	defer st.Close()

	if len(args) == 1 {
		return showRun(ctx, formatter, st, args[0])
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		return formatter.Success("No runs recorded.")
	}

	var b strings.Builder
	for i, run := range runs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(runLine(run))
	}
	return formatter.Success(b.String())
}

func showRun(ctx context.Context, f *OutputFormatter, st *store.Store, id string) error {
	run, err := st.ReadRun(ctx, id)
	if err != nil {
		code := ErrCodeHistory
		if errors.Is(err, store.ErrRunNotFound) {
			code = ErrCodeNotFound
		}
		return fail(f, ExitCommandError, code, err.Error(), nil)
	}

	cases, err := st.ReadCaseOutcomes(ctx, id)
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}

	if f.Format == "json" {
		return f.Success(RunDetail{Run: run, Cases: cases})
	}

	var b strings.Builder
	b.WriteString(runLine(run))
	for _, c := range cases {
		fmt.Fprintf(&b, "\n  %-7s %s#%s", c.Outcome, report.LessonTitle(c.Lesson), c.Case)
		if c.Message != "" {
			fmt.Fprintf(&b, ": %s", c.Message)
		}
	}
	return f.Success(b.String())
}

// runLine summarizes a run on one line.
func runLine(run store.Run) string {
	when := "-"
	if t, ok := run.CreatedAt(); ok {
		when = t.Format(time.RFC3339)
	}
	line := fmt.Sprintf("#%d  %s  %s  %d/%d passed", run.Seq, run.ID, when, run.Passed, run.Total)
	if run.FirstLesson != "" {
		line += fmt.Sprintf("  next: %s#%s", report.LessonTitle(run.FirstLesson), run.FirstCase)
	}
	return line
}
