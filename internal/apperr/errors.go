// Package apperr holds the error taxonomy shared by the store, service and
// HTTP layers. Handlers translate these into status codes; nothing below the
// handlers knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrEventNotFound         = fmt.Errorf("event %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrDuplicateRegistration = errors.New("user is already registered for this event")
	ErrConflict              = errors.New("conflict")
	ErrUsernameTaken         = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrForbidden             = errors.New("admin access required")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

// ValidationError is returned when input fails boundary validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string, value any) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message, Value: value}}}
}

// StorageError wraps an underlying persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it is nil or already part of the
// taxonomy.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateRegistration) || errors.Is(err, ErrConflict) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
