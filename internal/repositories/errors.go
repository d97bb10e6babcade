package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for unique_violation.
const pgUniqueViolation = "23505"

var (
	// ErrProductNotFound is returned when no product row matches a lookup.
	ErrProductNotFound = errors.New("product not found")
	// ErrUserNotFound is returned when no user row matches a lookup.
	ErrUserNotFound = errors.New("user not found")
)

// UniqueViolationError reports a write rejected by a unique constraint.
// Detail carries the store's own description of the conflicting value.
type UniqueViolationError struct {
	Constraint string
	Detail     string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint violated: %s", e.Detail)
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// translateWriteError maps driver level errors onto the repository error types.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		detail := pgErr.Detail
		if detail == "" {
			detail = pgErr.Message
		}
		return &UniqueViolationError{Constraint: pgErr.ConstraintName, Detail: detail, Err: err}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &UniqueViolationError{Detail: sqliteErr.Error(), Err: err}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &UniqueViolationError{Detail: err.Error(), Err: err}
	}

	return err
}
