package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidFormat      = fmt.Errorf("%w: invalid format", ErrValidation)
	ErrUsernameTaken      = errors.New("username already exists")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrCSRF               = errors.New("csrf token mismatch")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrPersistence        = errors.New("persistence failure")
)

// UserMessage returns the text shown to the end user for err. Persistence
// and unknown errors collapse into a generic message; the detail stays in
// the server log.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password. Please try again."
	case errors.Is(err, ErrCSRF):
		return "Security token validation failed. Please try again."
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotFound):
		return "Todo not found or you don't have permission to modify it."
	case errors.Is(err, ErrValidation):
		var fe *FieldError
		if errors.As(err, &fe) {
			return fe.Message
		}
		return "Invalid input"
	default:
		return "An error occurred. Please try again."
	}
}

// FieldError carries a human readable reason for a rejected field.
type FieldError struct {
	Field   string
	Message string
	err     error
}

func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message, err: ErrInvalidFormat}
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.err
}
