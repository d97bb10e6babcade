package services

import (
	"errors"

	"catalog/internal/repositories"

	"github.com/rs/zerolog"
)

// ErrorKind classifies failures returned by the services.
type ErrorKind string

const (
	ErrorKindNotFound ErrorKind = "not_found"
	ErrorKindConflict ErrorKind = "conflict"
	ErrorKindInternal ErrorKind = "internal"
	// ErrorKindInvalid marks input the store would accept but the catalog cannot use.
	ErrorKindInvalid ErrorKind = "invalid"
)

// internalErrorMessage is all callers ever see of an unclassified store failure.
const internalErrorMessage = "unexpected error, check server logs"

// Error is the typed failure returned by service operations.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a service Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}

func notFoundError(message string, err error) *Error {
	return &Error{Kind: ErrorKindNotFound, Message: message, Err: err}
}

func invalidError(message string) *Error {
	return &Error{Kind: ErrorKindInvalid, Message: message}
}

// classifyStoreError turns a persistence failure into a Conflict when a unique
// constraint rejected the write, and into an Internal error otherwise. Only the
// Internal branch is logged; its detail never reaches the caller.
func classifyStoreError(logger zerolog.Logger, operation string, err error) *Error {
	var uniqueErr *repositories.UniqueViolationError
	switch {
	case errors.As(err, &uniqueErr):
		return &Error{Kind: ErrorKindConflict, Message: uniqueErr.Detail, Err: err}
	default:
		logger.Error().Err(err).Str("operation", operation).Msg("store operation failed")
		return &Error{Kind: ErrorKindInternal, Message: internalErrorMessage, Err: err}
	}
}
