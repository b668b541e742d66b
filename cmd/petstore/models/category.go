package models

import (
	"github.com/google/uuid"
)

// Category groups pets in the catalog. Every pet references exactly one.
// Maps to: categories table
type Category struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID uuid.UUID `db:"external_id" json:"externalId"`
	Name       string    `db:"name" json:"name"`
}

// CategoryRef references a category either by id (must exist) or by name
// (created on first reference). Resolving by id never mutates the row.
type CategoryRef struct {
	ID   *int64  `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

// ByID reports whether the reference targets an existing category
func (r CategoryRef) ByID() bool {
	return r.ID != nil
}
