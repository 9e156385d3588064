package types

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when an operation references an unknown webhook id.
	ErrNotFound = errors.New("webhook configuration not found")

	// ErrInvalidURL is returned when a candidate endpoint URL fails syntax validation.
	ErrInvalidURL = errors.New("invalid webhook url")

	// ErrSigning is returned when a delivery cannot be signed. Signing failures
	// are never retried.
	ErrSigning = errors.New("signing secret missing or corrupted")
)

// ValidationError carries the field-level constraint violations found while
// saving a configuration. Nothing is persisted when one is returned.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
