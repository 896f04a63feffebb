// Package db provides error types for store operations.
package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a row with the same unique key already
	// exists, e.g. a replayed message id or a taken username.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidReference indicates a foreign key pointed at a row that
	// does not exist, e.g. a participant id for an unknown user.
	ErrInvalidReference = errors.New("invalid reference")
)

// Postgres error codes checked by wrapPgError.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// wrapPgError inspects a pgx error and wraps it with the matching
// sentinel. Returns the original error when it is not a recognized
// database error.
func wrapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.Detail)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.Detail)
		}
	}

	return err
}
