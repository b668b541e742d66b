package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/cmd/petstore/service"
	"github.com/lyzr/petstore/common/logger"
)

// JSONPatchContentType selects RFC 6902 semantics on PATCH /pet/:id
const JSONPatchContentType = "application/json-patch+json"

// PetHandler handles pet aggregate requests
type PetHandler struct {
	pets *service.PetService
	log  *logger.Logger
}

// NewPetHandler creates a new pet handler
func NewPetHandler(pets *service.PetService, log *logger.Logger) *PetHandler {
	return &PetHandler{
		pets: pets,
		log:  log,
	}
}

// CreatePet creates a pet aggregate
// POST /pet
func (h *PetHandler) CreatePet(c echo.Context) error {
	var req models.PetCreate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "name is required",
		})
	}
	if req.Category.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "category.name is required",
		})
	}
	if req.Status == 0 {
		req.Status = models.StatusAvailable
	}
	if !validStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "status must be 1 (available), 2 (pending) or 3 (sold)",
		})
	}
	if msg := validateTagRefs(req.Tags); msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": msg,
		})
	}

	aggregate, err := h.pets.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, h.log, "create pet", err)
	}

	return c.JSON(http.StatusCreated, aggregate)
}

// GetPet retrieves a pet aggregate
// GET /pet/:id
func (h *PetHandler) GetPet(c echo.Context) error {
	petID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	aggregate, err := h.pets.Get(c.Request().Context(), petID)
	if err != nil {
		return writeError(c, h.log, "get pet", err)
	}

	return c.JSON(http.StatusOK, aggregate)
}

// UpdatePet fully replaces a pet aggregate's mutable state
// PUT /pet/:id
func (h *PetHandler) UpdatePet(c echo.Context) error {
	petID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	var req models.PetUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
	}

	if msg := validateUpdate(req); msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": msg,
		})
	}

	aggregate, err := h.pets.Update(c.Request().Context(), petID, req)
	if err != nil {
		return writeError(c, h.log, "update pet", err)
	}

	return c.JSON(http.StatusOK, aggregate)
}

// ModifyPet partially updates a pet aggregate. A plain JSON body carries
// sparse fields; an application/json-patch+json body carries RFC 6902
// operations applied to the current aggregate document.
// PATCH /pet/:id
func (h *PetHandler) ModifyPet(c echo.Context) error {
	petID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), JSONPatchContentType) {
		return h.applyJSONPatch(c, petID)
	}

	var patch models.PetPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
	}

	if patch.Empty() {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "patch must touch at least one field",
		})
	}
	if patch.Status != nil && !validStatus(*patch.Status) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "status must be 1 (available), 2 (pending) or 3 (sold)",
		})
	}
	if patch.Tags != nil {
		if msg := validateTagRefs(*patch.Tags); msg != "" {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error": msg,
			})
		}
	}
	if patch.Category != nil && patch.Category.ID == nil && patch.Category.Name == nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "category reference needs an id or a name",
		})
	}

	aggregate, err := h.pets.Modify(c.Request().Context(), petID, patch)
	if err != nil {
		return writeError(c, h.log, "modify pet", err)
	}

	return c.JSON(http.StatusOK, aggregate)
}

// DeletePet deletes a pet aggregate and returns its pre-delete snapshot
// DELETE /pet/:id
func (h *PetHandler) DeletePet(c echo.Context) error {
	petID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	snapshot, err := h.pets.Delete(c.Request().Context(), petID)
	if err != nil {
		return writeError(c, h.log, "delete pet", err)
	}

	return c.JSON(http.StatusOK, snapshot)
}

// petDocument is the mutable view of the aggregate that RFC 6902 operations
// run against. References are id-only so a patched name reads as a rename
// request, not a stale copy of the old name.
type petDocument struct {
	Name      string             `json:"name"`
	Status    int                `json:"status"`
	Category  models.CategoryRef `json:"category"`
	Tags      []models.TagRef    `json:"tags"`
	PhotoURLs []string           `json:"photoUrls"`
}

func (h *PetHandler) applyJSONPatch(c echo.Context, petID int64) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "failed to read request body",
		})
	}

	patch, err := jsonpatch.DecodePatch(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid json patch document",
		})
	}

	ctx := c.Request().Context()
	aggregate, err := h.pets.Get(ctx, petID)
	if err != nil {
		return writeError(c, h.log, "modify pet", err)
	}

	doc, err := json.Marshal(documentFromAggregate(aggregate))
	if err != nil {
		return writeError(c, h.log, "modify pet", err)
	}

	patched, err := patch.Apply(doc)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error": "json patch does not apply: " + err.Error(),
		})
	}

	var next petDocument
	if err := json.Unmarshal(patched, &next); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error": "patched document is not a valid pet",
		})
	}

	update := models.PetUpdate{
		Name:      next.Name,
		Status:    next.Status,
		Category:  next.Category,
		Tags:      next.Tags,
		PhotoURLs: next.PhotoURLs,
	}
	if msg := validateUpdate(update); msg != "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error": msg,
		})
	}

	result, err := h.pets.Update(ctx, petID, update)
	if err != nil {
		return writeError(c, h.log, "modify pet", err)
	}

	return c.JSON(http.StatusOK, result)
}

func documentFromAggregate(aggregate *models.PetAggregate) petDocument {
	categoryID := aggregate.Category.ID
	doc := petDocument{
		Name:      aggregate.Name,
		Status:    aggregate.Status,
		Category:  models.CategoryRef{ID: &categoryID},
		Tags:      make([]models.TagRef, len(aggregate.Tags)),
		PhotoURLs: make([]string, len(aggregate.PhotoURLs)),
	}
	for i := range aggregate.Tags {
		tagID := aggregate.Tags[i].ID
		doc.Tags[i] = models.TagRef{ID: &tagID}
	}
	for i := range aggregate.PhotoURLs {
		doc.PhotoURLs[i] = aggregate.PhotoURLs[i].URL
	}
	return doc
}

func validStatus(status int) bool {
	return status >= models.StatusAvailable && status <= models.StatusSold
}

func validateTagRefs(refs []models.TagRef) string {
	for _, ref := range refs {
		if ref.ID == nil && ref.Name == nil {
			return "tag reference needs an id or a name"
		}
	}
	return ""
}

func validateUpdate(req models.PetUpdate) string {
	if req.Name == "" {
		return "name is required"
	}
	if !validStatus(req.Status) {
		return "status must be 1 (available), 2 (pending) or 3 (sold)"
	}
	if req.Category.ID == nil && req.Category.Name == nil {
		return "category reference needs an id or a name"
	}
	return validateTagRefs(req.Tags)
}
