package service

import (
	"context"
	"testing"

	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/errs"
	"github.com/lyzr/petstore/common/id"
	"github.com/lyzr/petstore/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCategoryStore exposes the standalone category admin surface on top of
// the shared fakeStore state
type fakeCategoryStore struct{ store *fakeStore }

func (f fakeCategoryStore) Get(ctx context.Context, q db.Querier, categoryID int64) (*models.Category, error) {
	category, ok := f.store.categories[categoryID]
	if !ok {
		return nil, errs.NewNotFound("Category", categoryID)
	}
	return &category, nil
}

func (f fakeCategoryStore) Create(ctx context.Context, q db.Querier, name string) (*models.Category, error) {
	category := models.Category{ID: f.store.newID(), ExternalID: id.New(), Name: name}
	f.store.categories[category.ID] = category
	return &category, nil
}

func (f fakeCategoryStore) Rename(ctx context.Context, q db.Querier, categoryID int64, name string) (*models.Category, error) {
	category, ok := f.store.categories[categoryID]
	if !ok {
		return nil, errs.NewNotFound("Category", categoryID)
	}
	category.Name = name
	f.store.categories[categoryID] = category
	return &category, nil
}

func (f fakeCategoryStore) Delete(ctx context.Context, q db.Querier, categoryID int64) (*models.Category, error) {
	category, ok := f.store.categories[categoryID]
	if !ok {
		return nil, errs.NewNotFound("Category", categoryID)
	}
	delete(f.store.categories, categoryID)
	return &category, nil
}

func (f fakeCategoryStore) Referenced(ctx context.Context, q db.Querier, categoryID int64) (bool, error) {
	for _, pet := range f.store.pets {
		if pet.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func newTestCategoryService(store *fakeStore) *CategoryService {
	log := logger.New("error", "json")
	return NewCategoryService(store, nil, nil, fakeCategoryStore{store}, log)
}

func TestCategoryDeleteRejectedWhileReferenced(t *testing.T) {
	store := newFakeStore()
	svc := newTestCategoryService(store)
	petSvc := newTestService(store, nil)

	pet := createPet(t, petSvc, "rex", nil, nil)

	_, err := svc.Delete(context.Background(), pet.Category.ID)
	require.Error(t, err)
	assert.True(t, errs.IsIntegrity(err))

	// the category row survives the rejected delete
	_, ok := store.categories[pet.Category.ID]
	assert.True(t, ok)
}

func TestCategoryDeleteRemovesUnreferencedRow(t *testing.T) {
	store := newFakeStore()
	svc := newTestCategoryService(store)

	created, err := svc.Create(context.Background(), "reptiles")
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "reptiles", deleted.Name)

	_, ok := store.categories[created.ID]
	assert.False(t, ok)
}
