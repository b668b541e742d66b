package service

import (
	"context"

	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/logger"
)

// TagStore is the standalone tag admin surface
type TagStore interface {
	Get(ctx context.Context, q db.Querier, tagID int64) (*models.Tag, error)
	Create(ctx context.Context, q db.Querier, name string) (*models.Tag, error)
	Rename(ctx context.Context, q db.Querier, tagID int64, name string) (*models.Tag, error)
	Delete(ctx context.Context, q db.Querier, tagID int64) (*models.Tag, error)
}

// TagService handles standalone tag administration
type TagService struct {
	tx     TxRunner
	writer db.Querier
	reader db.Querier
	tags   TagStore
	log    *logger.Logger
}

// NewTagService creates a new tag service
func NewTagService(tx TxRunner, writer, reader db.Querier, tags TagStore, log *logger.Logger) *TagService {
	return &TagService{tx: tx, writer: writer, reader: reader, tags: tags, log: log}
}

// Get retrieves a tag by id
func (s *TagService) Get(ctx context.Context, tagID int64) (*models.Tag, error) {
	return s.tags.Get(ctx, s.reader, tagID)
}

// Create inserts a tag with a fresh external id
func (s *TagService) Create(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := s.tags.Create(ctx, s.writer, name)
	if err != nil {
		return nil, err
	}

	s.log.Info("created tag", "tag_id", tag.ID, "name", tag.Name)
	return tag, nil
}

// Rename changes a tag's name
func (s *TagService) Rename(ctx context.Context, tagID int64, name string) (*models.Tag, error) {
	tag, err := s.tags.Rename(ctx, s.writer, tagID, name)
	if err != nil {
		return nil, err
	}

	s.log.Info("renamed tag", "tag_id", tagID, "name", name)
	return tag, nil
}

// Delete removes a tag and its bridge rows in one transaction, detaching
// it from every pet that carried it
func (s *TagService) Delete(ctx context.Context, tagID int64) (*models.Tag, error) {
	var tag *models.Tag

	err := s.tx.RunInTransaction(ctx, func(q db.Querier) error {
		var err error
		tag, err = s.tags.Delete(ctx, q, tagID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("deleted tag", "tag_id", tagID)
	return tag, nil
}
