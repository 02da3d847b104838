// Package apperror defines the console's client-facing error type. Every
// error that reaches the Echo error handler is either an *AppError, an
// *echo.HTTPError, or an unexpected failure that is logged and reported as
// a generic 500.
//
// Backend and infrastructure errors are never shown verbatim. Wrap them
// with NewInternal or NewBadGateway and keep the cause in Internal.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldProblem is a single field-level validation failure, rendered inline
// next to the offending form field.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError carries an HTTP status, a machine-readable type, and a message
// that is safe to show to the operator.
type AppError struct {
	// Code is the HTTP status code.
	Code int `json:"-"`

	// Type classifies the error ("not_found", "validation_error", ...).
	Type string `json:"type"`

	// Message is the operator-facing description.
	Message string `json:"message"`

	// Fields lists per-field problems for validation errors.
	Fields []FieldProblem `json:"fields,omitempty"`

	// Internal is the underlying cause, logged but never serialized.
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithFields attaches field problems and returns the same error.
func (e *AppError) WithFields(fields ...FieldProblem) *AppError {
	e.Fields = append(e.Fields, fields...)
	return e
}

func newError(code int, typ, message string) *AppError {
	return &AppError{Code: code, Type: typ, Message: message}
}

// NewNotFound creates a 404.
func NewNotFound(message string) *AppError {
	return newError(http.StatusNotFound, "not_found", message)
}

// NewBadRequest creates a 400.
func NewBadRequest(message string) *AppError {
	return newError(http.StatusBadRequest, "bad_request", message)
}

// NewUnauthorized creates a 401.
func NewUnauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, "unauthorized", message)
}

// NewForbidden creates a 403.
func NewForbidden(message string) *AppError {
	return newError(http.StatusForbidden, "forbidden", message)
}

// NewConflict creates a 409. Used when a save for the same session is
// already in flight.
func NewConflict(message string) *AppError {
	return newError(http.StatusConflict, "conflict", message)
}

// NewTooManyRequests creates a 429 for a client over its rate limit.
func NewTooManyRequests(message string) *AppError {
	return newError(http.StatusTooManyRequests, "rate_limited", message)
}

// NewValidation creates a 422 for input that failed local validation.
func NewValidation(message string) *AppError {
	return newError(http.StatusUnprocessableEntity, "validation_error", message)
}

// NewBadGateway creates a 502 for a failed call to the REST backend. The
// message is shown to the operator; the cause is only logged.
func NewBadGateway(message string, cause error) *AppError {
	e := newError(http.StatusBadGateway, "backend_error", message)
	e.Internal = cause
	return e
}

var errMissingContext = errors.New("missing required context")

// NewMissingContext is the 500 returned by handlers whose middleware-provided
// context (session, tour) is absent, meaning a route was wired incorrectly.
func NewMissingContext() *AppError {
	return NewInternal(errMissingContext)
}

// NewInternal creates a generic 500 that hides err from the client.
func NewInternal(err error) *AppError {
	e := newError(http.StatusInternalServerError, "internal_error",
		"An unexpected error occurred. Please try again.")
	e.Internal = err
	return e
}

// SafeMessage returns the client-safe message for err.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status for err, 500 when it is not an AppError.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
