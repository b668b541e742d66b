package service

import (
	"context"
	"fmt"

	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/errs"
	"github.com/lyzr/petstore/common/logger"
)

// CategoryStore is the standalone category admin surface
type CategoryStore interface {
	Get(ctx context.Context, q db.Querier, categoryID int64) (*models.Category, error)
	Create(ctx context.Context, q db.Querier, name string) (*models.Category, error)
	Rename(ctx context.Context, q db.Querier, categoryID int64, name string) (*models.Category, error)
	Delete(ctx context.Context, q db.Querier, categoryID int64) (*models.Category, error)
	Referenced(ctx context.Context, q db.Querier, categoryID int64) (bool, error)
}

// CategoryService handles standalone category administration
type CategoryService struct {
	tx         TxRunner
	writer     db.Querier
	reader     db.Querier
	categories CategoryStore
	log        *logger.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(tx TxRunner, writer, reader db.Querier, categories CategoryStore, log *logger.Logger) *CategoryService {
	return &CategoryService{tx: tx, writer: writer, reader: reader, categories: categories, log: log}
}

// Get retrieves a category by id
func (s *CategoryService) Get(ctx context.Context, categoryID int64) (*models.Category, error) {
	return s.categories.Get(ctx, s.reader, categoryID)
}

// Create inserts a category with a fresh external id
func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	category, err := s.categories.Create(ctx, s.writer, name)
	if err != nil {
		return nil, err
	}

	s.log.Info("created category", "category_id", category.ID, "name", category.Name)
	return category, nil
}

// Rename changes a category's name
func (s *CategoryService) Rename(ctx context.Context, categoryID int64, name string) (*models.Category, error) {
	category, err := s.categories.Rename(ctx, s.writer, categoryID, name)
	if err != nil {
		return nil, err
	}

	s.log.Info("renamed category", "category_id", categoryID, "name", name)
	return category, nil
}

// Delete removes a category. Referential integrity lives in the
// application, so the reference check and the delete share one
// transaction; a category still referenced by pets fails with an
// integrity error. Pet-driven cleanup happens on pet delete.
func (s *CategoryService) Delete(ctx context.Context, categoryID int64) (*models.Category, error) {
	var category *models.Category

	err := s.tx.RunInTransaction(ctx, func(q db.Querier) error {
		referenced, err := s.categories.Referenced(ctx, q, categoryID)
		if err != nil {
			return err
		}
		if referenced {
			return errs.NewIntegrity("Category",
				fmt.Errorf("category %d is still referenced by pets", categoryID))
		}

		category, err = s.categories.Delete(ctx, q, categoryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("deleted category", "category_id", categoryID)
	return category, nil
}
