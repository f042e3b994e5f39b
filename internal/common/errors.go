// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Rule and pattern errors.
	ErrValidation     = errors.New("validation failed")
	ErrInvalidPattern = errors.New("invalid pattern")

	// Bulk operation errors.
	ErrNoPendingUndo = errors.New("no pending undo")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// NewValidationError creates a validation error with a human-readable message.
func NewValidationError(format string, args ...any) error {
	return &UserError{
		UserMessage: fmt.Sprintf(format, args...),
		Err:         ErrValidation,
	}
}

// UserMessage extracts the user-facing message from an error, falling back
// to the plain error string.
func UserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}
