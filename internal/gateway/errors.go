package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionExpired wraps the backend error that made the gateway drop the
// session. Views react by sending the user to the login page.
var ErrSessionExpired = errors.New("session expired")

// NetworkError means the request never produced a GraphQL response.
type NetworkError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: network error: unexpected status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: network error: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// GraphQLError carries the messages of a response's errors list.
type GraphQLError struct {
	Operation string
	Messages  []string
}

func (e *GraphQLError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ValidationError is a precondition that failed before anything was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

var sessionInvalidMarkers = []string{"jwt expired", "invalid token", "unauthenticated"}

func (e *GraphQLError) sessionInvalid() bool {
	for _, msg := range e.Messages {
		lower := strings.ToLower(msg)
		for _, marker := range sessionInvalidMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}
