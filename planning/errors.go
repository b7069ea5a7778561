/*
errors.go - Centralized error kinds for the planning engine

PURPOSE:
  Every failure the engine reports belongs to exactly one kind. The shell
  maps kinds to user messages; the engine only guarantees the kind and a
  cause.

ERROR KINDS:
  ErrValidation        malformed/missing input, rejected before any write
  ErrNotFound          referenced row does not exist
  ErrTransientStorage  deadlock, serialization conflict, lost connection
                       (retried by the Executor for creations)
  ErrFatalStorage      constraint violation, malformed statement
  ErrInvalidDate       date cannot be parsed or represented
  ErrInvalidAmount     amount is malformed or negative

USAGE:
  if errors.Is(err, planning.ErrNotFound) { ... }

  var se *planning.StorageError
  if errors.As(err, &se) { log.Printf("%s failed: %v", se.Op, se.Err) }

SEE ALSO:
  - retry.go: consumes IsRetryable
  - store/sqlstore: classifies driver errors into StorageError
  - api/handlers.go: maps kinds to HTTP statuses
*/
package planning

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrTransientStorage = errors.New("transient storage error")
	ErrFatalStorage     = errors.New("fatal storage error")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")

	// ErrInvoiceNotFound is a NotFound for invoices; errors.Is matches both.
	ErrInvoiceNotFound = fmt.Errorf("invoice %w", ErrNotFound)

	// ErrAlreadyTerminated is returned when closing a closed contract.
	ErrAlreadyTerminated = fmt.Errorf("contract already terminated: %w", ErrValidation)
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	if e.Entity == "invoice" {
		return ErrInvoiceNotFound
	}
	return ErrNotFound
}

// DateError reports an input that is not a calendar date.
type DateError struct {
	Input string
}

func (e *DateError) Error() string {
	if e.Input == "" {
		return "invalid date: empty"
	}
	return fmt.Sprintf("invalid date: %q", e.Input)
}

func (e *DateError) Unwrap() error { return ErrInvalidDate }

// AmountError reports an input that is not a non-negative amount.
type AmountError struct {
	Field string
	Input string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("invalid amount for %s: %q", e.Field, e.Input)
}

func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// StorageError wraps a driver failure. It unwraps to both its kind
// (ErrTransientStorage or ErrFatalStorage) and the driver cause.
type StorageError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *StorageError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s storage error: %v", e.Op, kind, e.Err)
}

func (e *StorageError) Unwrap() []error {
	if e.Transient {
		return []error{ErrTransientStorage, e.Err}
	}
	return []error{ErrFatalStorage, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStorage)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidAmount)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
