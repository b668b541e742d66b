package container

import (
	"github.com/lyzr/petstore/cmd/petstore/repository"
	"github.com/lyzr/petstore/cmd/petstore/service"
	"github.com/lyzr/petstore/common/bootstrap"
)

// Container holds all initialized repositories and services
type Container struct {
	Components *bootstrap.Components

	// Repositories
	PetRepo      *repository.PetRepo
	TagRepo      *repository.TagRepo
	CategoryRepo *repository.CategoryRepo
	PhotoRepo    *repository.PhotoURLRepo

	// Services
	PetService      *service.PetService
	TagService      *service.TagService
	CategoryService *service.CategoryService
	PhotoService    *service.PhotoService
}

// NewContainer initializes all repositories and services once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	petRepo := repository.NewPetRepo()
	tagRepo := repository.NewTagRepo()
	categoryRepo := repository.NewCategoryRepo()
	photoRepo := repository.NewPhotoURLRepo()

	writer := components.DB.Writer()
	reader := components.DB.Reader()
	cfg := components.Config

	petService := service.NewPetService(
		components.DB,
		writer,
		reader,
		petRepo,
		tagRepo,
		categoryRepo,
		photoRepo,
		components.Cache,
		cfg.Cache.DefaultTTL,
		components.Bus,
		components.Logger,
	)

	tagService := service.NewTagService(components.DB, writer, reader, tagRepo, components.Logger)
	categoryService := service.NewCategoryService(components.DB, writer, reader, categoryRepo, components.Logger)
	photoService := service.NewPhotoService(
		writer,
		reader,
		photoRepo,
		petRepo,
		components.Cache,
		cfg.Storage.ImageDir,
		cfg.Service.PublicURL,
		components.Logger,
	)

	return &Container{
		Components:      components,
		PetRepo:         petRepo,
		TagRepo:         tagRepo,
		CategoryRepo:    categoryRepo,
		PhotoRepo:       photoRepo,
		PetService:      petService,
		TagService:      tagService,
		CategoryService: categoryService,
		PhotoService:    photoService,
	}, nil
}
