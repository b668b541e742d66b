package id

import (
	"github.com/google/uuid"
)

// New generates a 16-byte, time-ordered, globally-unique identifier (UUID v7).
// Suitable for index-friendly unique columns next to a bigserial primary key.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString generates a UUID v7 in canonical string form for boundary use
func NewString() string {
	return New().String()
}
