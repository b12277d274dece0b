package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/koans/internal/koan"
	"github.com/roach88/koans/internal/lesson"
	"github.com/roach88/koans/internal/report"
	"github.com/roach88/koans/internal/runner"
	"github.com/roach88/koans/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	FailFast bool
	Filter   string // lesson name filter (glob pattern)
	History  string // path to SQLite history database
	Progress bool
	NoColor  bool

	// Executor allows overriding the case executor (for testing).
	// If nil, defaults to the lesson interpreter.
	Executor runner.Executor

	// IDGenerator allows overriding run IDs (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Run lessons and show the next case to fix",
		Long: `Run every case of every lesson, in order, and report the first case that
did not pass.

Paths may be lesson files or directories. A directory is expanded through
its path_to_enlightenment.yaml manifest, or in lexical order without one.
With no paths, KOANS_PATH (default "koans") is used.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed or errored
  2 - Command error (missing or malformed lessons, bad flags, etc.)

Examples:
  koans run
  koans run koans/about_classes.yaml
  koans run --filter "about_array_*" --fail-fast
  koans run --history ~/.koans.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLessons(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop after the first case that does not pass")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only lessons whose name matches this glob pattern")
	cmd.Flags().StringVar(&opts.History, "history", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "show a progress bar on stderr")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	return cmd
}

func runLessons(ctx context.Context, opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	paths := lessonPaths(args, opts.RootOptions)
	lessons, err := loadLessons(formatter, paths, opts.Filter)
	if err != nil {
		return err
	}

	result := executeLessons(opts, lessons, cmd, logger)

	if err := recordHistory(ctx, opts, lessons, result, logger); err != nil {
		_ = formatter.Error(ErrCodeHistory, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to record run history", err)
	}

	return outputRunResult(formatter, result, opts.useColor(), opts.Verbose)
}

// executeLessons runs lessons with the configured executor, driving the
// progress bar when enabled.
func executeLessons(opts *RunOptions, lessons []*lesson.File, cmd *cobra.Command, logger *slog.Logger) *runner.Result {
	exec := opts.Executor
	if exec == nil {
		exec = koan.NewExecutor()
	}

	runOpts := runner.Options{
		FailFast: opts.FailFast || opts.config().FailFast,
		Logger:   logger,
	}

	if opts.Progress {
		bar := newProgressBar(cmd.ErrOrStderr(), countCases(lessons), opts.useColor())
		runOpts.Observer = func(runner.CaseResult) {
			_ = bar.Add(1)
		}
		defer func() { _ = bar.Finish() }()
	}

	return runner.Run(lessons, exec, runOpts)
}

func countCases(lessons []*lesson.File) int {
	n := 0
	for _, l := range lessons {
		n += len(l.Cases)
	}
	return n
}

func newProgressBar(w io.Writer, total int, useColor bool) *progressbar.ProgressBar {
	saucer := "="
	desc := "Meditating: "
	if useColor {
		saucer = color.CyanString("█")
		desc = color.CyanString(desc)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        saucer,
			SaucerHead:    saucer,
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(useColor),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(w), // stderr keeps the report on stdout clean
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// recordHistory stores the run when a history database is configured.
func recordHistory(ctx context.Context, opts *RunOptions, lessons []*lesson.File, result *runner.Result, logger *slog.Logger) error {
	dbPath := opts.History
	if dbPath == "" {
		dbPath = opts.config().HistoryDB
	}
	if dbPath == "" {
		return nil
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ids := opts.IDGenerator
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}

	paths := make([]string, len(lessons))
	for i, l := range lessons {
		paths[i] = l.Path
	}

	run, err := st.RecordRun(ctx, ids.Generate(), paths, result)
	if err != nil {
		return err
	}
	logger.Debug("run recorded", "id", run.ID, "seq", run.Seq, "db", dbPath)
	return nil
}

// useColor reports whether text output should be colored. fatih/color
// already turns color off when stdout is not a terminal.
func (o *RunOptions) useColor() bool {
	return !o.NoColor && !o.config().NoColor && !color.NoColor && o.Format != "json"
}

func outputRunResult(f *OutputFormatter, result *runner.Result, useColor, verbose bool) error {
	if f.Format == "json" {
		data, err := report.JSON(result)
		if err != nil {
			return fail(f, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		resp := CLIResponse{Status: "ok", Data: json.RawMessage(data)}
		if !result.AllPassed() {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeCasesFailed,
				Message: fmt.Sprintf("%d of %d case(s) did not pass", result.Total-result.Passed, result.Total),
			}
		}
		if err := f.Respond(resp); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	} else {
		fmt.Fprint(f.Writer, report.Text(result, report.Options{Color: useColor, Verbose: verbose}))
	}

	if !result.AllPassed() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d case(s) did not pass", result.Total-result.Passed, result.Total))
	}
	return nil
}
