package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/cmd/petstore/service"
	"github.com/lyzr/petstore/common/logger"
)

// CategoryHandler handles standalone category administration requests
type CategoryHandler struct {
	categories *service.CategoryService
	log        *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *service.CategoryService, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		log:        log,
	}
}

// CreateCategory creates a category
// POST /category
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req namedRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "name is required",
		})
	}

	category, err := h.categories.Create(c.Request().Context(), req.Name)
	if err != nil {
		return writeError(c, h.log, "create category", err)
	}

	return c.JSON(http.StatusCreated, category)
}

// GetCategory retrieves a category
// GET /category/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	categoryID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	category, err := h.categories.Get(c.Request().Context(), categoryID)
	if err != nil {
		return writeError(c, h.log, "get category", err)
	}

	return c.JSON(http.StatusOK, category)
}

// RenameCategory renames a category
// PUT /category/:id, PATCH /category/:id
func (h *CategoryHandler) RenameCategory(c echo.Context) error {
	categoryID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	var req namedRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "name is required",
		})
	}

	category, err := h.categories.Rename(c.Request().Context(), categoryID, req.Name)
	if err != nil {
		return writeError(c, h.log, "rename category", err)
	}

	return c.JSON(http.StatusOK, category)
}

// DeleteCategory deletes a category. Fails with 409 while pets still
// reference it.
// DELETE /category/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	categoryID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	category, err := h.categories.Delete(c.Request().Context(), categoryID)
	if err != nil {
		return writeError(c, h.log, "delete category", err)
	}

	return c.JSON(http.StatusOK, category)
}
