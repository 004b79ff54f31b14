package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenMissing means no bearer token was presented at all.
	ErrTokenMissing = errors.New("authorization token required")
	// ErrTokenInvalid means the presented token failed verification.
	ErrTokenInvalid = errors.New("invalid authorization token")
	// ErrNotFound means no matching record exists for the requesting user.
	ErrNotFound = errors.New("not found")
)

// ValidationError rejects an input before anything is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation builds a ValidationError for the named field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps a persistence-layer failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError, passing nil through.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
