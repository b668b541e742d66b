package repository

import (
	"context"
	"fmt"

	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/errs"
	"github.com/lyzr/petstore/common/id"
)

// CategoryRepo handles database operations for categories
type CategoryRepo struct{}

// NewCategoryRepo creates a new category repository
func NewCategoryRepo() *CategoryRepo {
	return &CategoryRepo{}
}

// Resolve resolves a single category reference. A by-id reference must
// match an existing row (miss → NotFound, caller rolls back); a by-name
// reference inserts a fresh row. Resolving by id never mutates the row.
func (r *CategoryRepo) Resolve(ctx context.Context, q db.Querier, ref models.CategoryRef) (*models.Category, error) {
	if ref.ByID() {
		return r.Get(ctx, q, *ref.ID)
	}
	if ref.Name == nil {
		return nil, fmt.Errorf("category reference has neither id nor name")
	}
	return r.Create(ctx, q, *ref.Name)
}

// Get retrieves a category by id
func (r *CategoryRepo) Get(ctx context.Context, q db.Querier, categoryID int64) (*models.Category, error) {
	query := `
		SELECT id, external_id, name
		FROM categories
		WHERE id = $1
	`

	category := &models.Category{}
	err := q.QueryRow(ctx, query, categoryID).Scan(&category.ID, &category.ExternalID, &category.Name)
	if err != nil {
		if noRows(err) {
			return nil, errs.NewNotFound("Category", categoryID)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// Create inserts a new category with a fresh identifier
func (r *CategoryRepo) Create(ctx context.Context, q db.Querier, name string) (*models.Category, error) {
	query := `
		INSERT INTO categories (external_id, name)
		VALUES ($1, $2)
		RETURNING id, external_id, name
	`

	category := &models.Category{}
	err := q.QueryRow(ctx, query, id.New(), name).Scan(&category.ID, &category.ExternalID, &category.Name)
	if err != nil {
		return nil, errs.FromDB("Category", fmt.Errorf("failed to create category: %w", err))
	}

	return category, nil
}

// Rename updates a category's name
func (r *CategoryRepo) Rename(ctx context.Context, q db.Querier, categoryID int64, name string) (*models.Category, error) {
	query := `
		UPDATE categories
		SET name = $2
		WHERE id = $1
		RETURNING id, external_id, name
	`

	category := &models.Category{}
	err := q.QueryRow(ctx, query, categoryID, name).Scan(&category.ID, &category.ExternalID, &category.Name)
	if err != nil {
		if noRows(err) {
			return nil, errs.NewNotFound("Category", categoryID)
		}
		return nil, fmt.Errorf("failed to rename category: %w", err)
	}

	return category, nil
}

// Delete removes a category and returns the deleted row. Callers must
// check Referenced first; the schema keeps referential integrity in the
// application, so an unguarded delete would silently orphan pets.
func (r *CategoryRepo) Delete(ctx context.Context, q db.Querier, categoryID int64) (*models.Category, error) {
	category, err := r.Get(ctx, q, categoryID)
	if err != nil {
		return nil, err
	}

	if _, err := q.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID); err != nil {
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}

	return category, nil
}

// Referenced reports whether any pet still references the category
func (r *CategoryRepo) Referenced(ctx context.Context, q db.Querier, categoryID int64) (bool, error) {
	var petID int64
	err := q.QueryRow(ctx, `SELECT id FROM pets WHERE category_id = $1 LIMIT 1`, categoryID).Scan(&petID)
	if err == nil {
		return true, nil
	}
	if noRows(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check category references: %w", err)
}

// DeleteIfOrphaned deletes the category when no pet other than excludePetID
// references it. The pet row for excludePetID must already be gone or about
// to go in the same transaction so the check excludes it explicitly.
// Returns whether the row was deleted.
func (r *CategoryRepo) DeleteIfOrphaned(ctx context.Context, q db.Querier, categoryID, excludePetID int64) (bool, error) {
	query := `
		SELECT id
		FROM pets
		WHERE category_id = $1 AND id <> $2
		LIMIT 1
	`

	var otherPetID int64
	err := q.QueryRow(ctx, query, categoryID, excludePetID).Scan(&otherPetID)
	if err == nil {
		// Still referenced
		return false, nil
	}
	if !noRows(err) {
		return false, fmt.Errorf("failed to check category references: %w", err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID); err != nil {
		return false, fmt.Errorf("failed to delete dangling category: %w", err)
	}

	return true, nil
}
