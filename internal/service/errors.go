// Package service provides business logic for the application.
package service

import (
	"errors"
	"sort"
	"strings"
)

// Service errors. Handlers map them to HTTP statuses.
var (
	ErrForbidden          = errors.New("unauthorized action")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries field-level messages for invalid input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// FieldError is shorthand for a single-field ValidationError.
func FieldError(field, message string) *ValidationError {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field has at least one message.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Err returns e when it holds messages and nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
