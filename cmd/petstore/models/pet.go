package models

import (
	"github.com/google/uuid"
)

// Pet status codes
const (
	StatusAvailable = 1
	StatusPending   = 2
	StatusSold      = 3
)

// Pet is a single row in the pets table. The full consistency boundary,
// including category, tags and photos, is PetAggregate.
type Pet struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID uuid.UUID `db:"external_id" json:"externalId"`
	Name       string    `db:"name" json:"name"`
	Status     int       `db:"status" json:"status"`
	CategoryID int64     `db:"category_id" json:"-"`
}

// PetAggregate is a pet joined with its category, tags and photo urls.
// A concurrent reader sees either the fully-old or fully-new aggregate,
// never an intermediate state.
type PetAggregate struct {
	ID         int64      `json:"id"`
	ExternalID uuid.UUID  `json:"externalId"`
	Name       string     `json:"name"`
	Status     int        `json:"status"`
	Category   Category   `json:"category"`
	Tags       []Tag      `json:"tags"`
	PhotoURLs  []PhotoURL `json:"photoUrls"`
}

// PetCreate is the validated create command. Category is always referenced
// by name on create.
type PetCreate struct {
	Name      string   `json:"name"`
	Status    int      `json:"status"`
	Category  NamedRef `json:"category"`
	Tags      []TagRef `json:"tags"`
	PhotoURLs []string `json:"photoUrls"`
}

// NamedRef is a by-name reference used where an id is not accepted
type NamedRef struct {
	Name string `json:"name"`
}

// PetUpdate is the validated full-replace command. Every field is required;
// category may be referenced by id or by name.
type PetUpdate struct {
	Name      string      `json:"name"`
	Status    int         `json:"status"`
	Category  CategoryRef `json:"category"`
	Tags      []TagRef    `json:"tags"`
	PhotoURLs []string    `json:"photoUrls"`
}

// PetPatch is the validated partial-update command. Nil means "leave
// untouched"; absent fields are omitted from the update statement entirely,
// never set to null.
type PetPatch struct {
	Name      *string      `json:"name,omitempty"`
	Status    *int         `json:"status,omitempty"`
	Category  *CategoryRef `json:"category,omitempty"`
	Tags      *[]TagRef    `json:"tags,omitempty"`
	PhotoURLs *[]string    `json:"photoUrls,omitempty"`
}

// Empty reports whether the patch touches nothing
func (p PetPatch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.Category == nil &&
		p.Tags == nil && p.PhotoURLs == nil
}
