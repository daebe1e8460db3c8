package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Ledger errors
	ErrStateNotFound  = errors.New("ledger state not found")
	ErrNothingToSpend = errors.New("no tokens to spend")
	ErrZeroAmount     = errors.New("adjustment amount must be non-zero")
	ErrNegativeRate   = errors.New("daily rate must be a non-negative integer")

	// History errors
	ErrNoActivity = errors.New("no activity recorded")
)

// ─── Error Kinds ────────────────────────────────────────────────────────────
// Three failure classes with distinct propagation rules:
//   validation  — rejected before any mutation, state unchanged
//   persistence — store read/write failed, operation considered not-applied
//   recording   — best-effort history write failed, advisory only

// ValidationError rejects invalid input before it reaches storage.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps a sentinel as a field-level validation failure.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// PersistenceError surfaces a store failure verbatim. The previously
// persisted state remains the effective state; callers must re-fetch.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError tags a store error with the operation that hit it.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// RecordingError is a non-fatal failure of a best-effort history write.
// It never rolls back or fails the parent mutation — it is logged and
// surfaced to the presentation layer as a soft warning.
type RecordingError struct {
	What string
	Err  error
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("failed to record %s: %v", e.What, e.Err)
}

func (e *RecordingError) Unwrap() error { return e.Err }

// NewRecordingError tags a history write failure with what was being recorded.
func NewRecordingError(what string, err error) *RecordingError {
	return &RecordingError{What: what, Err: err}
}

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is (or wraps) a store failure.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
