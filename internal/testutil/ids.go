package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator generates run IDs 1, 2, 3... formatted as UUIDv7
// strings with a fixed timestamp.
//
// This enables deterministic run history in tests: the same sequence of
// recorded runs always produces the same IDs, and every ID still carries
// a recoverable creation time.
//
// Thread-safety: Generate is safe for concurrent use.
type SequenceIDGenerator struct {
	mu sync.Mutex
	n  int
}

// NewSequenceIDGenerator creates a generator whose first ID ends in 1.
func NewSequenceIDGenerator() *SequenceIDGenerator {
	return &SequenceIDGenerator{}
}

// FixedTimestampPrefix is the time portion shared by every generated ID
// (2024-06-10T02:35:18.4Z).
const FixedTimestampPrefix = "01900000-0000"

// Generate returns the next ID in sequence.
//
// Implements store.IDGenerator interface.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return SequenceID(g.n)
}

// SequenceID returns the nth ID a SequenceIDGenerator produces.
func SequenceID(n int) string {
	return fmt.Sprintf("%s-7000-8000-%012d", FixedTimestampPrefix, n)
}
