package runner

import (
	"github.com/roach88/koans/internal/value"
)

// CanonicalMap converts the result to the map form accepted by
// value.MarshalCanonical. Empty optional fields are omitted.
func (r *Result) CanonicalMap() map[string]any {
	cases := make([]any, len(r.Cases))
	for i, c := range r.Cases {
		m := map[string]any{
			"lesson":  c.Lesson,
			"case":    c.Case,
			"ordinal": c.Ordinal,
			"path":    c.Path,
			"line":    c.Line,
			"outcome": string(c.Outcome),
		}
		if c.Kind != "" {
			m["kind"] = c.Kind
		}
		if c.Message != "" {
			m["message"] = c.Message
		}
		cases[i] = m
	}

	out := map[string]any{
		"total":   r.Total,
		"passed":  r.Passed,
		"failed":  r.Failed,
		"errored": r.Errored,
		"skipped": r.Skipped,
		"cases":   cases,
	}
	if f := r.FirstFailure; f != nil {
		out["first_failure"] = map[string]any{
			"lesson":  f.Lesson,
			"case":    f.Case,
			"path":    f.Path,
			"line":    f.Line,
			"outcome": string(f.Outcome),
			"kind":    f.Kind,
			"message": f.Message,
		}
	}
	return out
}

// Digest returns a content hash of the result. Equal results produce
// equal digests.
func (r *Result) Digest() (string, error) {
	return value.Digest(value.DomainRun, r.CanonicalMap())
}
