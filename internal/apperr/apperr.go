// Package apperr defines the error kinds shared by every layer of the service
// and their mapping onto HTTP status codes and wire codes.
package apperr

import (
	"errors"
	"net/http"
)

// Error kinds. Domain packages wrap one of these via New so callers can branch
// with errors.Is without knowing the concrete sentinel.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrInternal     = errors.New("internal error")
)

var kinds = []error{
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrUnavailable,
	ErrInvalidState,
	ErrValidation,
	ErrInternal,
}

// Error is a sentinel carrying a public message and its kind.
type Error struct {
	kind error
	msg  string
}

// New returns an error of the given kind with a message safe to show to clients.
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// KindOf classifies err. Anything not wrapping a known kind is internal.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Status maps err onto an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnavailable, ErrInvalidState:
		return http.StatusConflict
	case ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code maps err onto the machine readable code used in REST and GraphQL errors.
func Code(err error) string {
	switch KindOf(err) {
	case ErrUnauthorized:
		return "UNAUTHORIZED"
	case ErrForbidden:
		return "FORBIDDEN"
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrUnavailable:
		return "UNAVAILABLE"
	case ErrInvalidState:
		return "INVALID_STATE"
	case ErrValidation:
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// Message returns the client facing message for err. Internal errors never
// leak their cause.
func Message(err error) string {
	if KindOf(err) == ErrInternal {
		return "Internal server error"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return err.Error()
}
