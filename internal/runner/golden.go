package runner

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/koans/internal/value"
)

// AssertGolden compares the canonical JSON of a result against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	data, err := value.MarshalCanonical(result.CanonicalMap())
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
