package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// noRows reports whether err is the driver's zero-row sentinel
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
