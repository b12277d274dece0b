package store

import "github.com/google/uuid"

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Format: "550e8400-e29b-41d4-a716-446655440000" (36 characters)
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7. Panics if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
