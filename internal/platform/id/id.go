package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID issues random (version 4) identifiers for sessions.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}
