// Package id provides UUIDv7 generation for lots, suppliers and purchases.
// Sale documents keep the string identifiers assigned by the point-of-sale
// frontend; everything owned by this service uses time-ordered UUIDs.
package id

import (
	"github.com/google/uuid"
)

// ID is the identifier type for entities owned by this service.
type ID = uuid.UUID

// New generates a new UUIDv7. Time-ordered ids sort by creation time and
// keep good B-tree locality in PostgreSQL.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the random source does; fall back to V4.
		return uuid.New()
	}
	return id
}

// Parse converts a string to an ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts a string to an ID, panicking on error.
// For constants and tests only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero-value ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether id is the zero value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
