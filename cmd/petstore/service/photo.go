package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/common/cache"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/id"
	"github.com/lyzr/petstore/common/logger"
)

// PhotoStore is the per-photo write surface
type PhotoStore interface {
	Insert(ctx context.Context, q db.Querier, petID int64, url string) (*models.PhotoURL, error)
	ListByPet(ctx context.Context, q db.Querier, petID int64) ([]models.PhotoURL, error)
}

// PetChecker verifies a pet row exists
type PetChecker interface {
	Get(ctx context.Context, q db.Querier, petID int64) (*models.Pet, error)
}

// PhotoService stores uploaded pet images on disk and records their
// public urls against the pet
type PhotoService struct {
	writer    db.Querier
	reader    db.Querier
	photos    PhotoStore
	pets      PetChecker
	cache     cache.Cache // optional
	imageDir  string
	publicURL string
	log       *logger.Logger
}

// NewPhotoService creates a new photo upload service
func NewPhotoService(
	writer db.Querier,
	reader db.Querier,
	photos PhotoStore,
	pets PetChecker,
	readCache cache.Cache,
	imageDir string,
	publicURL string,
	log *logger.Logger,
) *PhotoService {
	return &PhotoService{
		writer:    writer,
		reader:    reader,
		photos:    photos,
		pets:      pets,
		cache:     readCache,
		imageDir:  imageDir,
		publicURL: publicURL,
		log:       log,
	}
}

// Upload writes the image to disk under a generated name and attaches its
// public url to the pet
func (s *PhotoService) Upload(ctx context.Context, petID int64, filename string, content io.Reader) (*models.PhotoURL, error) {
	if _, err := s.pets.Get(ctx, s.writer, petID); err != nil {
		return nil, err
	}

	storedName := id.NewString()
	if ext := filepath.Ext(filename); ext != "" {
		storedName += ext
	}

	if err := os.MkdirAll(s.imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(s.imageDir, storedName))
	if err != nil {
		return nil, fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}

	url := fmt.Sprintf("%s/images/%s", strings.TrimRight(s.publicURL, "/"), storedName)
	photo, err := s.photos.Insert(ctx, s.writer, petID, url)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, aggregateKey(petID)); err != nil {
			s.log.Warn("cache invalidation failed", "pet_id", petID, "error", err)
		}
	}

	s.log.Info("uploaded photo", "pet_id", petID, "url", url)
	return photo, nil
}

// List returns the pet's stored photo urls
func (s *PhotoService) List(ctx context.Context, petID int64) ([]models.PhotoURL, error) {
	if _, err := s.pets.Get(ctx, s.reader, petID); err != nil {
		return nil, err
	}
	return s.photos.ListByPet(ctx, s.reader, petID)
}
