// Package errors defines the sentinel errors shared by the index and the
// services that wrap it, plus an AppError type that attaches context to a
// sentinel while keeping it matchable with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyBuilt     = errors.New("index already built")
	ErrDocumentNotFound = errors.New("document not found")
	ErrIO               = errors.New("i/o error")
	ErrSerialization    = errors.New("serialization error")
	ErrInvalidInput     = errors.New("invalid input")
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a sentinel to a lower-level cause so that errors.Is matches
// both the sentinel and the cause.
func Wrap(sentinel error, cause error, message string) error {
	return fmt.Errorf("%w: %s: %w", sentinel, message, cause)
}

// Kind returns a short label for the sentinel err wraps, for logs and
// metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyBuilt):
		return "state"
	case errors.Is(err, ErrDocumentNotFound):
		return "not_found"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrSerialization):
		return "serialization"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
