// Package runner executes lesson cases in order and collects a RunResult.
//
// The runner owns ordering, outcome classification and aggregation; the
// Executor owns what a case means. A failing or erroring case never aborts
// the run: its outcome is recorded and the next case runs, unless
// Options.FailFast is set, in which case every remaining case is recorded
// as skipped.
//
// Outcomes:
//   - pass: the case completed without error
//   - fail: an assertion was not met (AssertionMismatch, ExpectedErrorNotRaised)
//   - error: anything else went wrong, including panics (UnexpectedError)
//   - skipped: not executed because of fail-fast
//
// Results contain no timing or random data, so running an unchanged lesson
// set twice yields identical results and identical digests.
package runner
