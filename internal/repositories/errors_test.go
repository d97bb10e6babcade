package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateWriteError_Postgres(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		Detail:         "Key (slug)=(chair) already exists.",
		ConstraintName: "idx_products_slug",
	}

	err := translateWriteError(fmt.Errorf("insert: %w", pgErr))

	var uniqueErr *UniqueViolationError
	require.True(t, errors.As(err, &uniqueErr))
	assert.Equal(t, "Key (slug)=(chair) already exists.", uniqueErr.Detail)
	assert.Equal(t, "idx_products_slug", uniqueErr.Constraint)
	assert.ErrorIs(t, err, pgErr)
}

func TestTranslateWriteError_PostgresOtherCode(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23502", Message: "null value in column"}

	err := translateWriteError(pgErr)

	var uniqueErr *UniqueViolationError
	assert.False(t, errors.As(err, &uniqueErr))
	assert.Same(t, pgErr, err)
}

func TestTranslateWriteError_SQLite(t *testing.T) {
	sqliteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}

	err := translateWriteError(sqliteErr)

	var uniqueErr *UniqueViolationError
	require.True(t, errors.As(err, &uniqueErr))
	assert.NotEmpty(t, uniqueErr.Detail)
}

func TestTranslateWriteError_SQLiteNotNull(t *testing.T) {
	sqliteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}

	err := translateWriteError(sqliteErr)

	var uniqueErr *UniqueViolationError
	assert.False(t, errors.As(err, &uniqueErr))
}

func TestTranslateWriteError_GormDuplicatedKey(t *testing.T) {
	err := translateWriteError(gorm.ErrDuplicatedKey)

	var uniqueErr *UniqueViolationError
	assert.True(t, errors.As(err, &uniqueErr))
}

func TestTranslateWriteError_PassThrough(t *testing.T) {
	assert.NoError(t, translateWriteError(nil))

	plain := errors.New("connection refused")
	assert.Same(t, plain, translateWriteError(plain))
}
