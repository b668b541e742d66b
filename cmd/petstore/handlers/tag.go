package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/cmd/petstore/service"
	"github.com/lyzr/petstore/common/logger"
)

// TagHandler handles standalone tag administration requests
type TagHandler struct {
	tags *service.TagService
	log  *logger.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tags *service.TagService, log *logger.Logger) *TagHandler {
	return &TagHandler{
		tags: tags,
		log:  log,
	}
}

type namedRequest struct {
	Name string `json:"name"`
}

// CreateTag creates a tag
// POST /tag
func (h *TagHandler) CreateTag(c echo.Context) error {
	var req namedRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "name is required",
		})
	}

	tag, err := h.tags.Create(c.Request().Context(), req.Name)
	if err != nil {
		return writeError(c, h.log, "create tag", err)
	}

	return c.JSON(http.StatusCreated, tag)
}

// GetTag retrieves a tag
// GET /tag/:id
func (h *TagHandler) GetTag(c echo.Context) error {
	tagID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	tag, err := h.tags.Get(c.Request().Context(), tagID)
	if err != nil {
		return writeError(c, h.log, "get tag", err)
	}

	return c.JSON(http.StatusOK, tag)
}

// RenameTag renames a tag
// PUT /tag/:id, PATCH /tag/:id
func (h *TagHandler) RenameTag(c echo.Context) error {
	tagID, err := pathID(c)
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

	tag, err := h.tags.Rename(c.Request().Context(), tagID, req.Name)
	if err != nil {
		return writeError(c, h.log, "rename tag", err)
	}

	return c.JSON(http.StatusOK, tag)
}

// DeleteTag deletes a tag, detaching it from every pet
// DELETE /tag/:id
func (h *TagHandler) DeleteTag(c echo.Context) error {
	tagID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	tag, err := h.tags.Delete(c.Request().Context(), tagID)
	if err != nil {
		return writeError(c, h.log, "delete tag", err)
	}

	return c.JSON(http.StatusOK, tag)
}
