package runner

import (
	"log/slog"

	"github.com/roach88/koans/internal/lesson"
)

// Executor runs a single case. A nil return means the case passed.
// A *koan.Failure is classified as fail; any other error as error.
type Executor interface {
	Execute(file *lesson.File, c *lesson.Case) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(file *lesson.File, c *lesson.Case) error

// Execute calls f.
func (f ExecutorFunc) Execute(file *lesson.File, c *lesson.Case) error {
	return f(file, c)
}

// Outcome is the recorded result of one case.
type Outcome string

// Case outcomes.
const (
	OutcomePass    Outcome = "pass"
	OutcomeFail    Outcome = "fail"
	OutcomeError   Outcome = "error"
	OutcomeSkipped Outcome = "skipped"
)

// KindUnexpectedError classifies every case error that is not an
// assertion failure.
const KindUnexpectedError = "UnexpectedError"

// Options configures a run.
type Options struct {
	// FailFast stops executing after the first case that does not pass.
	FailFast bool

	// Observer, if set, is called after every case, skipped ones included.
	Observer func(CaseResult)

	// Logger receives per-case debug logs. Nil discards them.
	Logger *slog.Logger
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Lesson  string  `json:"lesson"`
	Case    string  `json:"case"`
	Ordinal int     `json:"ordinal"`
	Path    string  `json:"path"`
	Line    int     `json:"line"`
	Outcome Outcome `json:"outcome"`

	// Kind is AssertionMismatch, ExpectedErrorNotRaised or UnexpectedError
	// for non-passing cases.
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// FailurePointer locates the first case that did not pass.
type FailurePointer struct {
	Lesson  string  `json:"lesson"`
	Case    string  `json:"case"`
	Path    string  `json:"path"`
	Line    int     `json:"line"`
	Outcome Outcome `json:"outcome"`
	Kind    string  `json:"kind"`
	Message string  `json:"message"`
}

// Result is the aggregate outcome of a run.
type Result struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`

	// Cases holds every case in execution order.
	Cases []CaseResult `json:"cases"`

	// FirstFailure is nil when every executed case passed.
	FirstFailure *FailurePointer `json:"first_failure,omitempty"`
}

// AllPassed reports whether every case passed.
func (r *Result) AllPassed() bool {
	return r.Passed == r.Total
}

// Lessons returns lesson names in execution order, without duplicates.
func (r *Result) Lessons() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range r.Cases {
		if !seen[c.Lesson] {
			seen[c.Lesson] = true
			out = append(out, c.Lesson)
		}
	}
	return out
}

func (r *Result) add(cr CaseResult) {
	r.Total++
	r.Cases = append(r.Cases, cr)

	switch cr.Outcome {
	case OutcomePass:
		r.Passed++
		return
	case OutcomeFail:
		r.Failed++
	case OutcomeError:
		r.Errored++
	case OutcomeSkipped:
		r.Skipped++
		return
	}

	if r.FirstFailure == nil {
		r.FirstFailure = &FailurePointer{
			Lesson:  cr.Lesson,
			Case:    cr.Case,
			Path:    cr.Path,
			Line:    cr.Line,
			Outcome: cr.Outcome,
			Kind:    cr.Kind,
			Message: cr.Message,
		}
	}
}
