package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors shared across the API surface. None of these are retried
// internally; retry policy belongs to the caller.
var (
	// Credential is missing, malformed, expired, or forged.
	ErrUnauthenticated = errors.New("authentication required")

	// Credential verified but the principal no longer exists. Kept distinct
	// from ErrUnauthenticated: a stale token is not a forged one.
	ErrUserNotFound = errors.New("user not found")

	// Entity does not exist OR the caller may not see it. The two cases are
	// deliberately indistinguishable so existence is never leaked.
	ErrNotFound = errors.New("not found or access denied")

	// Duplicate membership or resource.
	ErrConflict = errors.New("resource already exists")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated field, not just the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns nil when no field was violated, so validators can build up
// errors and return the result unconditionally.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
