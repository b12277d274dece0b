package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/koans/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Run lessons, then run again whenever a lesson file changes",
		Long: `Run lessons like "koans run", then keep watching the lesson directories
and rerun on every change until interrupted.

Load errors and failing cases are reported but do not stop the watch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop after the first case that does not pass")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only lessons whose name matches this glob pattern")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	return cmd
}

func runWatch(ctx context.Context, opts *RunOptions, args []string, cmd *cobra.Command) error {
	paths := lessonPaths(args, opts.RootOptions)
	logger := opts.logger(cmd.ErrOrStderr())

	rerun := func() {
		// Each pass reports its own outcome; the watch keeps going.
		_ = runLessons(ctx, opts, paths, cmd)
	}

	rerun()

	w := watch.New(watch.Dirs(paths), func(changed []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "\n--- changed: %s ---\n\n", strings.Join(changed, ", "))
		rerun()
	})
	w.Logger = logger

	if err := w.Run(ctx); err != nil {
		return fail(opts.formatter(cmd), ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	return nil
}
