package services

import (
	"errors"
	"fmt"
)

// Service-level failure taxonomy. Handlers map these onto HTTP status codes;
// nothing below this layer knows about transport.
var (
	// ErrPermissionDenied means a role/ownership check failed. Never retried.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound means a referenced id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a duplicate idempotency key. For due/overdue
	// notification writes it is swallowed and treated as success.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries field-level detail for malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
