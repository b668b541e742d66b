package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/errs"
	"github.com/lyzr/petstore/common/id"
)

// PhotoURLRepo handles database operations for photo urls
type PhotoURLRepo struct{}

// NewPhotoURLRepo creates a new photo url repository
func NewPhotoURLRepo() *PhotoURLRepo {
	return &PhotoURLRepo{}
}

// Reconcile applies the minimal insert/delete diff between the pet's stored
// urls and the target set, then returns the resulting full set. Target order
// is irrelevant and duplicates collapse; reconciling twice with the same
// target issues no further writes.
func (r *PhotoURLRepo) Reconcile(ctx context.Context, q db.Querier, petID int64, target []string) ([]models.PhotoURL, error) {
	existing, err := r.ListByPet(ctx, q, petID)
	if err != nil {
		return nil, err
	}

	existingURLs := make([]string, len(existing))
	for i, photo := range existing {
		existingURLs[i] = photo.URL
	}

	toDelete, toInsert := diffURLs(existingURLs, target)

	if len(toDelete) > 0 {
		query := `
			DELETE FROM photo_urls
			WHERE pet_id = $1 AND url = ANY($2)
		`
		if _, err := q.Exec(ctx, query, petID, toDelete); err != nil {
			return nil, fmt.Errorf("failed to delete photo urls: %w", err)
		}
	}

	if len(toInsert) > 0 {
		if err := r.insertBatch(ctx, q, petID, toInsert); err != nil {
			return nil, err
		}
	}

	// Re-read so the caller gets the post-mutation set
	return r.ListByPet(ctx, q, petID)
}

// ListByPet loads all photo url rows owned by the pet
func (r *PhotoURLRepo) ListByPet(ctx context.Context, q db.Querier, petID int64) ([]models.PhotoURL, error) {
	query := `
		SELECT id, external_id, url, pet_id
		FROM photo_urls
		WHERE pet_id = $1
	`

	rows, err := q.Query(ctx, query, petID)
	if err != nil {
		return nil, fmt.Errorf("failed to select photo urls: %w", err)
	}
	defer rows.Close()

	return scanPhotoURLs(rows)
}

// Insert adds a single photo url for the pet
func (r *PhotoURLRepo) Insert(ctx context.Context, q db.Querier, petID int64, url string) (*models.PhotoURL, error) {
	query := `
		INSERT INTO photo_urls (external_id, url, pet_id)
		VALUES ($1, $2, $3)
		RETURNING id, external_id, url, pet_id
	`

	photo := &models.PhotoURL{}
	err := q.QueryRow(ctx, query, id.New(), url, petID).
		Scan(&photo.ID, &photo.ExternalID, &photo.URL, &photo.PetID)
	if err != nil {
		return nil, errs.FromDB("PhotoUrl", fmt.Errorf("failed to insert photo url: %w", err))
	}

	return photo, nil
}

// DeleteByPet removes every photo url owned by the pet
func (r *PhotoURLRepo) DeleteByPet(ctx context.Context, q db.Querier, petID int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM photo_urls WHERE pet_id = $1`, petID); err != nil {
		return fmt.Errorf("failed to delete photo urls: %w", err)
	}
	return nil
}

// insertBatch inserts urls for the pet in a single statement
func (r *PhotoURLRepo) insertBatch(ctx context.Context, q db.Querier, petID int64, urls []string) error {
	externalIDs := make([]uuid.UUID, len(urls))
	for i := range urls {
		externalIDs[i] = id.New()
	}

	query := `
		INSERT INTO photo_urls (external_id, url, pet_id)
		SELECT unnest($1::uuid[]), unnest($2::text[]), $3
	`

	if _, err := q.Exec(ctx, query, externalIDs, urls, petID); err != nil {
		return errs.FromDB("PhotoUrl", fmt.Errorf("failed to insert photo urls: %w", err))
	}
	return nil
}

// diffURLs computes the set difference both ways on the url string.
// Duplicates in target collapse to one entry.
func diffURLs(existing, target []string) (toDelete, toInsert []string) {
	existingSet := make(map[string]struct{}, len(existing))
	for _, url := range existing {
		existingSet[url] = struct{}{}
	}
	targetSet := make(map[string]struct{}, len(target))
	for _, url := range target {
		targetSet[url] = struct{}{}
	}

	for _, url := range existing {
		if _, ok := targetSet[url]; !ok {
			toDelete = append(toDelete, url)
		}
	}
	seen := make(map[string]struct{}, len(target))
	for _, url := range target {
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		if _, ok := existingSet[url]; !ok {
			toInsert = append(toInsert, url)
		}
	}
	return toDelete, toInsert
}

func scanPhotoURLs(rows pgx.Rows) ([]models.PhotoURL, error) {
	var photos []models.PhotoURL
	for rows.Next() {
		var photo models.PhotoURL
		if err := rows.Scan(&photo.ID, &photo.ExternalID, &photo.URL, &photo.PetID); err != nil {
			return nil, fmt.Errorf("failed to scan photo url: %w", err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read photo urls: %w", err)
	}
	return photos, nil
}
