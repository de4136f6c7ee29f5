package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrNoSession is returned by calls that need a token when none is set.
var ErrNoSession = errors.New("client: not logged in")

// APIError is a non-success envelope returned by the API.
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) == 0 {
		return fmt.Sprintf("api: %d %s", e.Status, msg)
	}
	return fmt.Sprintf("api: %d %s (%s)", e.Status, msg, strings.Join(e.FieldMessages(), "; "))
}

// FieldMessages flattens field errors into "field: message" lines sorted by
// field name.
func (e *APIError) FieldMessages() []string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []string
	for _, field := range fields {
		for _, msg := range e.Errors[field] {
			out = append(out, field+": "+msg)
		}
	}
	return out
}

// IsUnauthenticated reports whether err is a 401 from the API.
func IsUnauthenticated(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports whether err is a 403 from the API.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsValidation reports whether err is a 422 from the API.
func IsValidation(err error) bool {
	return hasStatus(err, http.StatusUnprocessableEntity)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
