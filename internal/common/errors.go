// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrMalformedRecord = errors.New("malformed record")
	ErrInputRead       = errors.New("failed to read input")

	// Output errors.
	ErrOutputWrite       = errors.New("failed to write output")
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// Configuration errors.
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

// IsFatal reports whether err must abort a batch run. Per-record problems
// are never fatal; input and output stream failures are.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedRecord) {
		return false
	}
	return errors.Is(err, ErrInputRead) || errors.Is(err, ErrOutputWrite)
}
