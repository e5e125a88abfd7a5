package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when no row satisfies a lookup or guarded update.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a guarded update lost a race.
var ErrConflict = errors.New("record changed concurrently")

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
