package service

import (
	"errors"
	"fmt"

	"example.com/calendariko/internal/schedule"
)

// Sentinel errors surfaced to the transport layer. Every one of them is
// terminal for the invocation; the core never retries.
var (
	// ErrNotFound indicates the referenced band, event or user is absent
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied indicates an authorization predicate returned false
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidCredentials indicates a failed login or token refresh
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError indicates malformed or contradictory input, such as an end
// instant at or before the start
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError rejects an event write and carries the full list of
// colliding events so the caller can disambiguate
type ConflictError struct {
	Conflicts []schedule.Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with %d event(s)", len(e.Conflicts))
}
