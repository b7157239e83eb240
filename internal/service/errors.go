package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound is returned when no account matches the identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUnauthorized covers invalid tokens, insufficient roles and ownership
	// mismatches.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpdateFailed means a post-write verification read did not see the
	// value that was just persisted. It is an internal fault, never swallowed.
	ErrUpdateFailed = errors.New("persistence verification failed")
)

// ValidationError reports a malformed, user-correctable field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports an already-taken unique field. Message carries the
// client-facing status ("UnavailableEmail", "UnavailableUsername").
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func unavailableEmail() *ConflictError {
	return &ConflictError{Field: "email", Message: "UnavailableEmail"}
}

func unavailableUsername() *ConflictError {
	return &ConflictError{Field: "username", Message: "UnavailableUsername"}
}
