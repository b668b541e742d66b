package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for the storage layer
var (
	// ErrNotFound indicates that an id-based lookup found zero rows.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity indicates a constraint the database rejected. Never
	// expected in normal operation and never retried.
	ErrIntegrity = errors.New("integrity violation")
)

// NotFoundError carries the entity name and the ids that missed
type NotFoundError struct {
	Entity string
	IDs    []int64
}

// NewNotFound creates a NotFoundError for the given entity and ids
func NewNotFound(entity string, ids ...int64) *NotFoundError {
	return &NotFoundError{Entity: entity, IDs: ids}
}

func (e *NotFoundError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("%s %s", e.Entity, ErrNotFound)
	}
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s(%s) %s", e.Entity, strings.Join(parts, ", "), ErrNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IntegrityError wraps a constraint violation reported by the database
type IntegrityError struct {
	Entity string
	Cause  error
}

// NewIntegrity creates an IntegrityError wrapping the database cause
func NewIntegrity(entity string, cause error) *IntegrityError {
	return &IntegrityError{Entity: entity, Cause: cause}
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, ErrIntegrity, e.Cause)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

// IsNotFound reports whether err is a not-found failure
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsIntegrity reports whether err is a constraint violation
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// Postgres error classes for constraint violations (SQLSTATE 23xxx)
const integrityClass = "23"

// FromDB classifies a database error for the given entity. Unique-key and
// foreign-key violations become IntegrityError; everything else propagates
// unmodified per the no-retry policy.
func FromDB(entity string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, integrityClass) {
		return NewIntegrity(entity, err)
	}

	return err
}
