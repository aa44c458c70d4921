// Package apperr translates domain errors into the HTTP boundary's
// status taxonomy through one reusable classifier.
package apperr

import (
	"errors"
	"net/http"

	"github.com/chainwatch/price-compare/internal/store"
)

// Kind enumerates the boundary-visible error classes.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindInternal      Kind = "internal"
)

// Error is a domain error carrying a Kind and a machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a 4xx not-found error.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// InvalidInput builds a 4xx validation error.
func InvalidInput(code, message string) *Error {
	return &Error{Kind: KindInvalidInput, Code: code, Message: message}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Err: err}
}

// Classify maps any error (including store.NotFoundError) to a Kind,
// defaulting to internal for anything unrecognized.
func Classify(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	var notFound *store.NotFoundError
	if errors.As(err, &notFound) {
		return NotFound("not_found", notFound.Error())
	}
	return Internal(err)
}

// HTTPStatus returns the status code for a Kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
