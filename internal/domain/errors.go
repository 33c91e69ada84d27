// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation  ErrorType = iota // Input validation errors (400 Bad Request)
	ErrorTypeNotFound                     // Resource not found errors (404 Not Found)
	ErrorTypeConflict                     // Resource conflict errors (409 Conflict)
	ErrorTypeNotReady                     // Resource not ready yet, retriable (425 Too Early)
	ErrorTypeInternal                     // Internal server errors (500 Internal Server Error)
	ErrorTypeUnavailable                  // Service unavailable errors (503 Service Unavailable)
)

// Sentinel errors shared across the storage and service layers.
var (
	// ErrSessionNotFound is returned when an attendance session does not exist.
	ErrSessionNotFound = errors.New("attendance session not found")
	// ErrMeetingNotFound is returned when a meeting directory entry does not exist.
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrCourtCardNotFound is returned when a court card does not exist.
	ErrCourtCardNotFound = errors.New("court card not found")
	// ErrCourtCardExists is returned when a card already exists for a session.
	// Callers treat this as an idempotent hit, not a failure.
	ErrCourtCardExists = errors.New("court card already exists")
	// ErrSessionNotReady is returned when finalization is requested before the
	// provider has reported the participant leaving. Retriable.
	ErrSessionNotReady = errors.New("session has no leave time yet")
	// ErrSessionCompleted is returned when activity is reported for a session
	// that has already completed.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrInternal is a generic internal error.
	ErrInternal = errors.New("internal error")
	// ErrRevisionMismatch is returned when an optimistic-concurrency update loses the race.
	ErrRevisionMismatch = errors.New("revision mismatch")
	// ErrUnmarshal is returned when stored data cannot be decoded.
	ErrUnmarshal = errors.New("unmarshal error")
	// ErrServiceUnavailable is returned when a dependency is not wired or not connected.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrValidationFailed is returned when request input fails validation.
	ErrValidationFailed = errors.New("validation failed")
)

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrMeetingNotFound), errors.Is(err, ErrCourtCardNotFound):
		return ErrorTypeNotFound
	case errors.Is(err, ErrCourtCardExists), errors.Is(err, ErrRevisionMismatch), errors.Is(err, ErrSessionCompleted):
		return ErrorTypeConflict
	case errors.Is(err, ErrSessionNotReady):
		return ErrorTypeNotReady
	case errors.Is(err, ErrServiceUnavailable):
		return ErrorTypeUnavailable
	case errors.Is(err, ErrValidationFailed):
		return ErrorTypeValidation
	}
	return ErrorTypeInternal // default fallback
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewNotReadyError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotReady, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}
