package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInsufficientCredits is the business outcome when the owner cannot
	// afford the request, either at the pre-flight check or at debit time.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrExternalService marks failures of the upstream place-search
	// provider. Callers may retry the whole request later.
	ErrExternalService = errors.New("external service error")

	// ErrSchemaNotReady means the search tables are not provisioned yet.
	// Surfaced as service-unavailable with a remediation hint, never as a
	// generic internal error.
	ErrSchemaNotReady = errors.New("search tables not provisioned, run migrations")

	// ErrDebitFailed signals a conditional debit that did not apply, either
	// because the balance dropped below the amount or the store write
	// failed. Internal: the orchestrator converts it to
	// ErrInsufficientCredits before it reaches a caller.
	ErrDebitFailed = errors.New("debit failed")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// ExternalError wraps a provider failure with the upstream HTTP status
// when one was received (0 for transport-level failures).
type ExternalError struct {
	StatusCode int
	Err        error
}

func (e *ExternalError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider: %v", e.Err)
}

func (e *ExternalError) Unwrap() error { return ErrExternalService }
