package models

import (
	"github.com/google/uuid"
)

// PhotoURL is a photo location fully owned by a pet. Rows are reconciled to
// the caller-supplied set on every update and deleted with the pet.
// Maps to: photo_urls table
type PhotoURL struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID uuid.UUID `db:"external_id" json:"externalId"`
	URL        string    `db:"url" json:"url"`
	PetID      int64     `db:"pet_id" json:"-"`
}
