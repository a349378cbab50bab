package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrNotConfirmed is returned when a destructive bulk operation was declined.
	ErrNotConfirmed = errors.New("operation not confirmed")
)

// FieldError names one invalid input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports input that was rejected before any write was attempted.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(flds ...FieldError) error {
	return &ValidationError{Fields: flds}
}

// Invalid is shorthand for a single-field ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Error: msg}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldMap returns the field errors keyed by field name.
func (e *ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
