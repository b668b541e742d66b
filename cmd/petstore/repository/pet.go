package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/errs"
	"github.com/lyzr/petstore/common/id"
)

// PetRepo handles database operations for pet rows, the pets_to_tags bridge
// and the assembled aggregate view
type PetRepo struct{}

// NewPetRepo creates a new pet repository
func NewPetRepo() *PetRepo {
	return &PetRepo{}
}

// Get retrieves a bare pet row by id
func (r *PetRepo) Get(ctx context.Context, q db.Querier, petID int64) (*models.Pet, error) {
	query := `
		SELECT id, external_id, name, status, category_id
		FROM pets
		WHERE id = $1
	`

	pet := &models.Pet{}
	err := q.QueryRow(ctx, query, petID).
		Scan(&pet.ID, &pet.ExternalID, &pet.Name, &pet.Status, &pet.CategoryID)
	if err != nil {
		if noRows(err) {
			return nil, errs.NewNotFound("Pet", petID)
		}
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}

	return pet, nil
}

// Insert creates a pet row and returns its generated id
func (r *PetRepo) Insert(ctx context.Context, q db.Querier, name string, status int, categoryID int64) (int64, error) {
	query := `
		INSERT INTO pets (external_id, name, status, category_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var petID int64
	err := q.QueryRow(ctx, query, id.New(), name, status, categoryID).Scan(&petID)
	if err != nil {
		return 0, errs.FromDB("Pet", fmt.Errorf("failed to insert pet: %w", err))
	}

	return petID, nil
}

// Update replaces the pet row's scalar columns
func (r *PetRepo) Update(ctx context.Context, q db.Querier, petID int64, name string, status int, categoryID int64) error {
	query := `
		UPDATE pets
		SET name = $2, status = $3, category_id = $4
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, petID, name, status, categoryID); err != nil {
		return errs.FromDB("Pet", fmt.Errorf("failed to update pet: %w", err))
	}
	return nil
}

// UpdatePartial updates only the supplied columns. Nil fields are omitted
// from the statement entirely, never set to null. A patch with no scalar
// fields issues no statement.
func (r *PetRepo) UpdatePartial(ctx context.Context, q db.Querier, petID int64, name *string, status *int, categoryID *int64) error {
	sets := make([]string, 0, 3)
	args := []any{petID}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if name != nil {
		appendSet("name", *name)
	}
	if status != nil {
		appendSet("status", *status)
	}
	if categoryID != nil {
		appendSet("category_id", *categoryID)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE pets SET %s WHERE id = $1`, strings.Join(sets, ", "))

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return errs.FromDB("Pet", fmt.Errorf("failed to update pet: %w", err))
	}
	return nil
}

// Delete removes the pet row
func (r *PetRepo) Delete(ctx context.Context, q db.Querier, petID int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM pets WHERE id = $1`, petID); err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}
	return nil
}

// LinkTags inserts one bridge row per tag. Duplicate tag ids in the input
// collapse on the composite primary key.
func (r *PetRepo) LinkTags(ctx context.Context, q db.Querier, petID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO pets_to_tags (pet_id, tag_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`

	if _, err := q.Exec(ctx, query, petID, tagIDs); err != nil {
		return errs.FromDB("PetTagLink", fmt.Errorf("failed to link tags: %w", err))
	}
	return nil
}

// UnlinkTags removes every bridge row for the pet
func (r *PetRepo) UnlinkTags(ctx context.Context, q db.Querier, petID int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM pets_to_tags WHERE pet_id = $1`, petID); err != nil {
		return fmt.Errorf("failed to unlink tags: %w", err)
	}
	return nil
}

// ReconcileTagLinks rewrites the pet's bridge rows to exactly the given tag
// set: stale links are removed, missing ones inserted
func (r *PetRepo) ReconcileTagLinks(ctx context.Context, q db.Querier, petID int64, tagIDs []int64) error {
	deleteQuery := `
		DELETE FROM pets_to_tags
		WHERE pet_id = $1 AND NOT (tag_id = ANY($2))
	`
	if len(tagIDs) == 0 {
		return r.UnlinkTags(ctx, q, petID)
	}

	if _, err := q.Exec(ctx, deleteQuery, petID, tagIDs); err != nil {
		return fmt.Errorf("failed to prune tag links: %w", err)
	}

	return r.LinkTags(ctx, q, petID, tagIDs)
}

// TagIDs returns the pet's linked tag ids from the bridge table
func (r *PetRepo) TagIDs(ctx context.Context, q db.Querier, petID int64) ([]int64, error) {
	rows, err := q.Query(ctx, `SELECT tag_id FROM pets_to_tags WHERE pet_id = $1`, petID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tag links: %w", err)
	}
	defer rows.Close()

	var tagIDs []int64
	for rows.Next() {
		var tagID int64
		if err := rows.Scan(&tagID); err != nil {
			return nil, fmt.Errorf("failed to scan tag link: %w", err)
		}
		tagIDs = append(tagIDs, tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tag links: %w", err)
	}
	return tagIDs, nil
}

// ReadAggregate loads a pet joined with its category, tags and photo urls.
// A pet row without its category is a data-integrity violation and surfaces
// as an internal error, never as an empty category.
func (r *PetRepo) ReadAggregate(ctx context.Context, q db.Querier, petID int64) (*models.PetAggregate, error) {
	query := `
		SELECT p.id, p.external_id, p.name, p.status,
		       c.id, c.external_id, c.name
		FROM pets p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	aggregate := &models.PetAggregate{}
	var categoryID *int64
	var categoryExternalID *uuid.UUID
	var categoryName *string

	err := q.QueryRow(ctx, query, petID).Scan(
		&aggregate.ID,
		&aggregate.ExternalID,
		&aggregate.Name,
		&aggregate.Status,
		&categoryID,
		&categoryExternalID,
		&categoryName,
	)
	if err != nil {
		if noRows(err) {
			return nil, errs.NewNotFound("Pet", petID)
		}
		return nil, fmt.Errorf("failed to get pet aggregate: %w", err)
	}

	if categoryID == nil || categoryExternalID == nil || categoryName == nil {
		return nil, errs.NewIntegrity("Pet", fmt.Errorf("pet %d has no category", petID))
	}
	aggregate.Category = models.Category{
		ID:         *categoryID,
		ExternalID: *categoryExternalID,
		Name:       *categoryName,
	}

	tagsQuery := `
		SELECT t.id, t.external_id, t.name
		FROM tags t
		JOIN pets_to_tags ptt ON ptt.tag_id = t.id
		WHERE ptt.pet_id = $1
		ORDER BY t.id
	`
	tagRows, err := q.Query(ctx, tagsQuery, petID)
	if err != nil {
		return nil, fmt.Errorf("failed to select pet tags: %w", err)
	}
	defer tagRows.Close()

	tags, err := scanTags(tagRows)
	if err != nil {
		return nil, err
	}
	aggregate.Tags = tags
	if aggregate.Tags == nil {
		aggregate.Tags = []models.Tag{}
	}

	photoRepo := NewPhotoURLRepo()
	photos, err := photoRepo.ListByPet(ctx, q, petID)
	if err != nil {
		return nil, err
	}
	aggregate.PhotoURLs = photos
	if aggregate.PhotoURLs == nil {
		aggregate.PhotoURLs = []models.PhotoURL{}
	}

	return aggregate, nil
}
