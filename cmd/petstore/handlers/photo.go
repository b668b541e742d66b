package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/cmd/petstore/service"
	"github.com/lyzr/petstore/common/logger"
)

// PhotoHandler handles pet image uploads
type PhotoHandler struct {
	photos *service.PhotoService
	log    *logger.Logger
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photos *service.PhotoService, log *logger.Logger) *PhotoHandler {
	return &PhotoHandler{
		photos: photos,
		log:    log,
	}
}

// UploadImage stores a multipart image and attaches its url to the pet
// POST /pet/:id/uploadImage
func (h *PhotoHandler) UploadImage(c echo.Context) error {
	petID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "multipart field 'file' is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "failed to open uploaded file",
		})
	}
	defer src.Close()

	photo, err := h.photos.Upload(c.Request().Context(), petID, file.Filename, src)
	if err != nil {
		return writeError(c, h.log, "upload image", err)
	}

	return c.JSON(http.StatusCreated, photo)
}

// ListImages lists the pet's stored photo urls
// GET /pet/:id/photos
func (h *PhotoHandler) ListImages(c echo.Context) error {
	petID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	photos, err := h.photos.List(c.Request().Context(), petID)
	if err != nil {
		return writeError(c, h.log, "list images", err)
	}

	return c.JSON(http.StatusOK, photos)
}
