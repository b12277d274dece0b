package koan

import "fmt"

// Failure kinds.
const (
	KindAssertionMismatch      = "AssertionMismatch"
	KindExpectedErrorNotRaised = "ExpectedErrorNotRaised"
)

// Failure is an unmet expectation: an assertion that compared unequal, a
// blank left unfilled, or an assert_raise whose operation did not raise
// the expected kind.
type Failure struct {
	Kind    string // KindAssertionMismatch or KindExpectedErrorNotRaised
	Message string
	Line    int  // source line of the failing step
	Blank   bool // the expectation still contains __
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// SourceLine returns the line of the failing step.
func (f *Failure) SourceLine() int {
	return f.Line
}

// RaisedError is an error raised by lesson content, such as NoMethodError.
// Outside assert_raise it makes the case an error rather than a failure.
type RaisedError struct {
	Kind    string // one of the lesson.Kind* error kinds
	Message string
	Line    int
}

func (e *RaisedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// SourceLine returns the line of the step that raised.
func (e *RaisedError) SourceLine() int {
	return e.Line
}

func raise(kind, format string, args ...any) *RaisedError {
	return &RaisedError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func blankFailure() *Failure {
	return &Failure{
		Kind:    KindAssertionMismatch,
		Message: "Fill in the blank: replace __ with the value you expect",
		Blank:   true,
	}
}
