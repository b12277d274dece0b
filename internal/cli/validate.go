package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/koans/internal/lesson"
	"github.com/roach88/koans/internal/report"
)

// ValidationResult describes a successfully loaded lesson set.
type ValidationResult struct {
	Valid   bool            `json:"valid"`
	Lessons []LessonSummary `json:"lessons"`
	Cases   int             `json:"cases"`
}

// LessonSummary lists the cases of one lesson.
type LessonSummary struct {
	Name  string   `json:"name"`
	Path  string   `json:"path"`
	Cases []string `json:"cases"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "validate [path...]",
		Short: "Check lesson files without running them",
		Long: `Load lesson files and report format errors without executing any case.

Checks YAML and CUE syntax, the lesson schema, step verbs, class
declarations and duplicate names. Faster than run for authoring feedback.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, filter, cmd)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "validate only lessons whose name matches this glob pattern")

	return cmd
}

func runValidate(opts *RootOptions, args []string, filter string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	lessons, err := loadLessons(formatter, lessonPaths(args, opts), filter)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: true, Lessons: make([]LessonSummary, 0, len(lessons))}
	for _, l := range lessons {
		summary := LessonSummary{Name: l.Name, Path: l.Path, Cases: make([]string, 0, len(l.Cases))}
		for _, c := range l.Cases {
			summary.Cases = append(summary.Cases, c.Name)
		}
		result.Lessons = append(result.Lessons, summary)
		result.Cases += len(l.Cases)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(validationText(lessons, result, opts.Verbose))
}

func validationText(lessons []*lesson.File, result ValidationResult, verbose bool) string {
	var b strings.Builder
	for _, l := range lessons {
		fmt.Fprintf(&b, "%s (%s): %d case(s)\n", report.LessonTitle(l.Name), l.Path, len(l.Cases))
		if verbose {
			for _, c := range l.Cases {
				fmt.Fprintf(&b, "  %d. %s\n", c.Ordinal, c.Name)
			}
		}
	}
	fmt.Fprintf(&b, "✓ All lessons valid (%d lesson(s), %d case(s))", len(result.Lessons), result.Cases)
	return b.String()
}
