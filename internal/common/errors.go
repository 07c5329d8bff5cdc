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

	// Ingestion errors.
	ErrInvalidFormat = errors.New("invalid file format")
	ErrNoBankLines   = errors.New("no bank lines found")

	// Rule errors.
	ErrInvalidRule     = errors.New("invalid rule")
	ErrMalformedAmount = errors.New("malformed amount criterion")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DataIntegrityError signals that input records could not be coerced to
// their expected types. It is propagated rather than silently defaulted,
// since a zeroed amount would corrupt coverage statistics.
type DataIntegrityError struct {
	Err   error
	Field string
	Value string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: field %s value %q: %v", e.Field, e.Value, e.Err)
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}

// NewDataIntegrityError wraps a coercion failure with its offending field.
func NewDataIntegrityError(field, value string, err error) error {
	return &DataIntegrityError{Field: field, Value: value, Err: err}
}
