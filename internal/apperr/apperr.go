// Package apperr defines the error taxonomy shared by the problem and
// annotation services. Transport layers map these to status codes with
// errors.As; everything else is treated as an internal failure.
package apperr

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ValidationError reports malformed or missing input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the message for the alphabetically first field.
func (e *ValidationError) First() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	if len(keys) == 0 {
		return "invalid input"
	}
	return fmt.Sprintf("%s %s", keys[0], e.Fields[keys[0]])
}

// NotFoundError reports a missing problem or annotation. Message, when
// set, replaces the generated text.
type NotFoundError struct {
	Kind    string
	ID      string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConflictError reports an operation that is invalid for the current state.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// Conflictf builds a ConflictError with a formatted reason.
func Conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError reports a failed or unusable solution generator call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError reports a failed record store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
