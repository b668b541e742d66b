package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFound("Tag", 3, 7)

	assert.Equal(t, "Tag(3, 7) not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsIntegrity(err))

	// Survives wrapping
	wrapped := fmt.Errorf("failed to resolve tags: %w", err)
	assert.True(t, IsNotFound(wrapped))

	var notFound *NotFoundError
	require.True(t, errors.As(wrapped, &notFound))
	assert.Equal(t, []int64{3, 7}, notFound.IDs)
}

func TestNotFoundErrorWithoutIDs(t *testing.T) {
	err := NewNotFound("Pet")
	assert.Equal(t, "Pet not found", err.Error())
}

func TestIntegrityError(t *testing.T) {
	cause := errors.New("category row missing")
	err := NewIntegrity("Pet", cause)

	assert.True(t, IsIntegrity(err))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Pet")
	assert.Contains(t, err.Error(), "category row missing")
}

func TestFromDBClassifiesConstraintViolations(t *testing.T) {
	fkViolation := &pgconn.PgError{Code: "23503", Message: "foreign key violation"}
	err := FromDB("Category", fmt.Errorf("failed to delete category: %w", fkViolation))
	assert.True(t, IsIntegrity(err))

	uniqueViolation := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	err = FromDB("Tag", uniqueViolation)
	assert.True(t, IsIntegrity(err))
}

func TestFromDBPassesOtherErrorsThrough(t *testing.T) {
	syntaxErr := &pgconn.PgError{Code: "42601", Message: "syntax error"}
	err := FromDB("Pet", syntaxErr)
	assert.False(t, IsIntegrity(err))
	assert.Equal(t, syntaxErr, err)

	plain := errors.New("connection refused")
	assert.Equal(t, plain, FromDB("Pet", plain))

	assert.NoError(t, FromDB("Pet", nil))
}
