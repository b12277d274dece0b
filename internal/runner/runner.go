package runner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/koans/internal/koan"
	"github.com/roach88/koans/internal/lesson"
)

// sourceLiner is implemented by case errors that know the step they came from.
type sourceLiner interface {
	SourceLine() int
}

// Run executes every case of every lesson in order and returns the
// aggregate result. Case errors and panics are recorded, never returned.
func Run(lessons []*lesson.File, exec Executor, opts Options) *Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	result := &Result{Cases: []CaseResult{}}
	stopped := false

	for _, file := range lessons {
		for i := range file.Cases {
			c := &file.Cases[i]

			var cr CaseResult
			if stopped {
				cr = newCaseResult(file, c)
				cr.Outcome = OutcomeSkipped
			} else {
				cr = runCase(exec, file, c)
				logger.Debug("case finished",
					"lesson", file.Name,
					"case", c.Name,
					"outcome", cr.Outcome,
				)
			}

			result.add(cr)
			if opts.Observer != nil {
				opts.Observer(cr)
			}

			if opts.FailFast && !stopped && (cr.Outcome == OutcomeFail || cr.Outcome == OutcomeError) {
				logger.Debug("stopping after first failure", "lesson", file.Name, "case", c.Name)
				stopped = true
			}
		}
	}

	logger.Debug("run finished",
		"total", result.Total,
		"passed", result.Passed,
		"failed", result.Failed,
		"errored", result.Errored,
		"skipped", result.Skipped,
	)
	return result
}

func newCaseResult(file *lesson.File, c *lesson.Case) CaseResult {
	return CaseResult{
		Lesson:  file.Name,
		Case:    c.Name,
		Ordinal: c.Ordinal,
		Path:    file.Path,
		Line:    c.Line,
	}
}

// runCase executes one case and classifies its outcome.
func runCase(exec Executor, file *lesson.File, c *lesson.Case) CaseResult {
	cr := newCaseResult(file, c)

	err := execute(exec, file, c)
	if err == nil {
		cr.Outcome = OutcomePass
		return cr
	}

	var liner sourceLiner
	if errors.As(err, &liner) && liner.SourceLine() > 0 {
		cr.Line = liner.SourceLine()
	}

	var failure *koan.Failure
	if errors.As(err, &failure) {
		cr.Outcome = OutcomeFail
		cr.Kind = failure.Kind
		cr.Message = failure.Message
		return cr
	}

	cr.Outcome = OutcomeError
	cr.Kind = KindUnexpectedError
	cr.Message = err.Error()
	return cr
}

// execute runs the case, converting a panic into an error.
func execute(exec Executor, file *lesson.File, c *lesson.Case) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return exec.Execute(file, c)
}
