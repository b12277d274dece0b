// Package report renders a run result for the learner.
//
// Text output leads with the first case that did not pass, since that is
// the one blank the learner should fill next, then shows how far along the
// path they are. All rendering is a pure function of the result.
package report
