// Package apperror defines the domain errors shared by the service and handler layers.
//
// The service layer returns these; handlers translate them into HTTP status codes.
// Every AppError wraps one sentinel so callers can branch with errors.Is.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("Validation Error")
	ErrConflict    = errors.New("conflict")
	ErrTooLarge    = errors.New("payload too large")
	ErrUnsupported = errors.New("unsupported")
	ErrUnavailable = errors.New("unavailable")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	ID      string // Optional: identifier of the missing/conflicting resource (for logs)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource. The message is the one the API returns
// verbatim, e.g. "Problem not found", so it never echoes the caller's input.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", capitalize(resource)),
		ID:      id,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
		ID:      id,
	}
}

// TooLarge reports a request field or body over its configured limit.
// HTTP handlers map this to 413 Request Entity Too Large.
func TooLarge(field string, limit int) *AppError {
	return &AppError{
		Err:     ErrTooLarge,
		Message: fmt.Sprintf("%s exceeds the maximum size of %d bytes", field, limit),
		Field:   field,
	}
}

// Unsupported reports a value outside a fixed enumerated set (e.g. a language).
func Unsupported(field, value string) *AppError {
	return &AppError{
		Err:     ErrUnsupported,
		Message: fmt.Sprintf("unsupported %s: %q", field, value),
		Field:   field,
	}
}

// Unavailable reports that the server could not take on the work in time.
// HTTP handlers map this to 503 Service Unavailable.
func Unavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
