package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathID(t *testing.T) {
	e := echo.New()

	newContext := func(raw string) echo.Context {
		req := httptest.NewRequest("GET", "/pet/"+raw, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(raw)
		return c
	}

	id, err := pathID(newContext("42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = pathID(newContext("abc"))
	assert.Error(t, err)

	_, err = pathID(newContext("-1"))
	assert.Error(t, err)

	_, err = pathID(newContext("0"))
	assert.Error(t, err)
}

func TestValidStatus(t *testing.T) {
	assert.True(t, validStatus(models.StatusAvailable))
	assert.True(t, validStatus(models.StatusPending))
	assert.True(t, validStatus(models.StatusSold))
	assert.False(t, validStatus(0))
	assert.False(t, validStatus(4))
}

func TestValidateUpdate(t *testing.T) {
	name := "cats"
	valid := models.PetUpdate{
		Name:     "Nabi",
		Status:   models.StatusAvailable,
		Category: models.CategoryRef{Name: &name},
	}
	assert.Empty(t, validateUpdate(valid))

	noName := valid
	noName.Name = ""
	assert.NotEmpty(t, validateUpdate(noName))

	badStatus := valid
	badStatus.Status = 9
	assert.NotEmpty(t, validateUpdate(badStatus))

	noCategory := valid
	noCategory.Category = models.CategoryRef{}
	assert.NotEmpty(t, validateUpdate(noCategory))

	emptyTagRef := valid
	emptyTagRef.Tags = []models.TagRef{{}}
	assert.NotEmpty(t, validateUpdate(emptyTagRef))
}

func TestDocumentFromAggregate(t *testing.T) {
	aggregate := &models.PetAggregate{
		ID:       7,
		Name:     "Nabi",
		Status:   models.StatusAvailable,
		Category: models.Category{ID: 3, Name: "cats"},
		Tags:     []models.Tag{{ID: 11, Name: "friendly"}},
		PhotoURLs: []models.PhotoURL{
			{ID: 21, URL: "https://img/1", PetID: 7},
		},
	}

	doc := documentFromAggregate(aggregate)

	require.NotNil(t, doc.Category.ID)
	assert.Equal(t, int64(3), *doc.Category.ID)
	assert.Nil(t, doc.Category.Name)
	require.Len(t, doc.Tags, 1)
	assert.Equal(t, int64(11), *doc.Tags[0].ID)
	assert.Equal(t, []string{"https://img/1"}, doc.PhotoURLs)
}

func TestJSONPatchAppliesToPetDocument(t *testing.T) {
	aggregate := &models.PetAggregate{
		ID:       7,
		Name:     "Nabi",
		Status:   models.StatusAvailable,
		Category: models.Category{ID: 3, Name: "cats"},
		Tags:     []models.Tag{{ID: 11, Name: "friendly"}},
		PhotoURLs: []models.PhotoURL{
			{ID: 21, URL: "https://img/1", PetID: 7},
		},
	}

	doc, err := json.Marshal(documentFromAggregate(aggregate))
	require.NoError(t, err)

	patch, err := jsonpatch.DecodePatch([]byte(`[
		{"op": "replace", "path": "/status", "value": 3},
		{"op": "add", "path": "/tags/-", "value": {"name": "sold-out"}},
		{"op": "remove", "path": "/photoUrls/0"},
		{"op": "replace", "path": "/category", "value": {"name": "archive"}}
	]`))
	require.NoError(t, err)

	patched, err := patch.Apply(doc)
	require.NoError(t, err)

	var next petDocument
	require.NoError(t, json.Unmarshal(patched, &next))

	assert.Equal(t, "Nabi", next.Name)
	assert.Equal(t, models.StatusSold, next.Status)
	require.Len(t, next.Tags, 2)
	assert.Equal(t, int64(11), *next.Tags[0].ID)
	assert.Equal(t, "sold-out", *next.Tags[1].Name)
	assert.Empty(t, next.PhotoURLs)
	require.NotNil(t, next.Category.Name)
	assert.Equal(t, "archive", *next.Category.Name)
	assert.Nil(t, next.Category.ID)

	update := models.PetUpdate{
		Name:      next.Name,
		Status:    next.Status,
		Category:  next.Category,
		Tags:      next.Tags,
		PhotoURLs: next.PhotoURLs,
	}
	assert.Empty(t, validateUpdate(update))
}
