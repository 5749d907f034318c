// Package apperr defines the application error taxonomy shared by the
// service layer and the HTTP boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a business-rule violation carrying the HTTP status it maps to.
type Error struct {
	StatusCode int    // HTTP status the boundary should respond with.
	Message    string // Human-readable message, safe to return to clients.
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Validation reports malformed or missing input.
func Validation(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Message: message}
}

// Authentication reports missing or invalid credentials.
func Authentication(message string) *Error {
	return &Error{StatusCode: http.StatusUnauthorized, Message: message}
}

// Forbidden reports an ownership or permission mismatch.
func Forbidden(message string) *Error {
	return &Error{StatusCode: http.StatusForbidden, Message: message}
}

// NotFound reports an absent or soft-deleted entity.
func NotFound(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Message: message}
}

// Conflict reports an operation invalid in the entity's current state,
// such as completing an already-completed task or a duplicate unlock.
func Conflict(message string) *Error {
	return &Error{StatusCode: http.StatusConflict, Message: message}
}

// From extracts an *Error from err, reporting whether one was found.
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
