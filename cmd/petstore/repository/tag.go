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

// TagRepo handles database operations for tags. Methods take the caller's
// query handle so resolution participates in the caller's transaction.
type TagRepo struct{}

// NewTagRepo creates a new tag repository
func NewTagRepo() *TagRepo {
	return &TagRepo{}
}

// Resolve resolves a mixed list of by-id and by-name tag references.
// Missing ids fail with NotFound before any insert, so a failure rolls the
// caller's transaction back without persisting any of the name references.
// Empty input issues zero queries.
func (r *TagRepo) Resolve(ctx context.Context, q db.Querier, refs []models.TagRef) (*models.ResolvedTags, error) {
	idRefs := make([]int64, 0, len(refs))
	nameRefs := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ByID() {
			idRefs = append(idRefs, *ref.ID)
		} else if ref.Name != nil {
			nameRefs = append(nameRefs, *ref.Name)
		}
	}

	selected, err := r.selectByIDs(ctx, q, idRefs)
	if err != nil {
		return nil, err
	}

	if missing := missingIDs(idRefs, selected); len(missing) > 0 {
		return nil, errs.NewNotFound("Tag", missing...)
	}

	inserted, err := r.insertNames(ctx, q, nameRefs)
	if err != nil {
		return nil, err
	}

	all := make([]models.Tag, 0, len(selected)+len(inserted))
	all = append(all, selected...)
	all = append(all, inserted...)

	return &models.ResolvedTags{
		Selected: selected,
		Inserted: inserted,
		All:      all,
	}, nil
}

// selectByIDs looks up all requested ids in one query
func (r *TagRepo) selectByIDs(ctx context.Context, q db.Querier, ids []int64) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, external_id, name
		FROM tags
		WHERE id = ANY($1)
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// insertNames creates one tag per name reference in a single batched insert
func (r *TagRepo) insertNames(ctx context.Context, q db.Querier, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	externalIDs := make([]uuid.UUID, len(names))
	for i := range names {
		externalIDs[i] = id.New()
	}

	query := `
		INSERT INTO tags (external_id, name)
		SELECT unnest($1::uuid[]), unnest($2::text[])
		RETURNING id, external_id, name
	`

	rows, err := q.Query(ctx, query, externalIDs, names)
	if err != nil {
		return nil, errs.FromDB("Tag", fmt.Errorf("failed to insert tags: %w", err))
	}
	defer rows.Close()

	return scanTags(rows)
}

// DeleteDangling deletes the given tags that no bridge row references
// anymore. Callers must remove their own bridge rows first so the
// reachability check is accurate. Returns the ids actually deleted.
func (r *TagRepo) DeleteDangling(ctx context.Context, q db.Querier, tagIDs []int64) ([]int64, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT tag_id
		FROM pets_to_tags
		WHERE tag_id = ANY($1)
	`

	rows, err := q.Query(ctx, query, tagIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check tag references: %w", err)
	}
	defer rows.Close()

	tied := make(map[int64]struct{}, len(tagIDs))
	for rows.Next() {
		var tagID int64
		if err := rows.Scan(&tagID); err != nil {
			return nil, fmt.Errorf("failed to scan tag reference: %w", err)
		}
		tied[tagID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tag references: %w", err)
	}

	dangling := make([]int64, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		if _, ok := tied[tagID]; !ok {
			dangling = append(dangling, tagID)
		}
	}
	if len(dangling) == 0 {
		return nil, nil
	}

	if _, err := q.Exec(ctx, `DELETE FROM tags WHERE id = ANY($1)`, dangling); err != nil {
		return nil, fmt.Errorf("failed to delete dangling tags: %w", err)
	}

	return dangling, nil
}

// Get retrieves a tag by id
func (r *TagRepo) Get(ctx context.Context, q db.Querier, tagID int64) (*models.Tag, error) {
	query := `
		SELECT id, external_id, name
		FROM tags
		WHERE id = $1
	`

	tag := &models.Tag{}
	err := q.QueryRow(ctx, query, tagID).Scan(&tag.ID, &tag.ExternalID, &tag.Name)
	if err != nil {
		if noRows(err) {
			return nil, errs.NewNotFound("Tag", tagID)
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return tag, nil
}

// Create inserts a single tag
func (r *TagRepo) Create(ctx context.Context, q db.Querier, name string) (*models.Tag, error) {
	query := `
		INSERT INTO tags (external_id, name)
		VALUES ($1, $2)
		RETURNING id, external_id, name
	`

	tag := &models.Tag{}
	err := q.QueryRow(ctx, query, id.New(), name).Scan(&tag.ID, &tag.ExternalID, &tag.Name)
	if err != nil {
		return nil, errs.FromDB("Tag", fmt.Errorf("failed to create tag: %w", err))
	}

	return tag, nil
}

// Rename updates a tag's name
func (r *TagRepo) Rename(ctx context.Context, q db.Querier, tagID int64, name string) (*models.Tag, error) {
	query := `
		UPDATE tags
		SET name = $2
		WHERE id = $1
		RETURNING id, external_id, name
	`

	tag := &models.Tag{}
	err := q.QueryRow(ctx, query, tagID, name).Scan(&tag.ID, &tag.ExternalID, &tag.Name)
	if err != nil {
		if noRows(err) {
			return nil, errs.NewNotFound("Tag", tagID)
		}
		return nil, fmt.Errorf("failed to rename tag: %w", err)
	}

	return tag, nil
}

// Delete removes a tag by id and returns the deleted row. The schema has no
// foreign keys, so bridge rows are cleared explicitly to avoid stale links.
func (r *TagRepo) Delete(ctx context.Context, q db.Querier, tagID int64) (*models.Tag, error) {
	tag, err := r.Get(ctx, q, tagID)
	if err != nil {
		return nil, err
	}

	if _, err := q.Exec(ctx, `DELETE FROM pets_to_tags WHERE tag_id = $1`, tagID); err != nil {
		return nil, fmt.Errorf("failed to unlink tag: %w", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM tags WHERE id = $1`, tagID); err != nil {
		return nil, fmt.Errorf("failed to delete tag: %w", err)
	}

	return tag, nil
}

// missingIDs computes the requested ids that no selected row matched
func missingIDs(requested []int64, selected []models.Tag) []int64 {
	found := make(map[int64]struct{}, len(selected))
	for _, tag := range selected {
		found[tag.ID] = struct{}{}
	}

	var missing []int64
	seen := make(map[int64]struct{}, len(requested))
	for _, tagID := range requested {
		if _, dup := seen[tagID]; dup {
			continue
		}
		seen[tagID] = struct{}{}
		if _, ok := found[tagID]; !ok {
			missing = append(missing, tagID)
		}
	}
	return missing
}

func scanTags(rows pgx.Rows) ([]models.Tag, error) {
	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.ExternalID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	return tags, nil
}
