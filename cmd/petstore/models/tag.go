package models

import (
	"github.com/google/uuid"
)

// Tag is a lightweight marker attached to pets for filtering.
// Maps to: tags table
type Tag struct {
	// Surrogate key, internal only
	ID int64 `db:"id" json:"id"`

	// Opaque unique token (UUID v7), safe to expose at the boundary
	ExternalID uuid.UUID `db:"external_id" json:"externalId"`

	// Display name, non-empty, at most 100 characters
	Name string `db:"name" json:"name"`
}

// TagRef references a tag either by id (must exist) or by name (created on
// first reference). Exactly one of the two fields is set.
type TagRef struct {
	ID   *int64  `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

// ByID reports whether the reference targets an existing tag
func (r TagRef) ByID() bool {
	return r.ID != nil
}

// ResolvedTags is the result of resolving a mixed list of tag references
type ResolvedTags struct {
	// Rows matched by id
	Selected []Tag

	// Rows newly created from name references
	Inserted []Tag

	// Selected followed by Inserted
	All []Tag
}
