package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrNotFound            = errors.New("item not found")
	ErrInvalidIdentifier   = errors.New("invalid item id")
	ErrConstraintViolation = errors.New("constraint violation")
)

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Valid() bool {
	return len(v) == 0
}

// ValidationError is returned when a candidate record is rejected.
// It matches ErrValidationFailed under errors.Is.
type ValidationError struct {
	Fields ValidationErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
