package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidLoanState is returned when a computation needs a started loan.
	ErrInvalidLoanState = errors.New("loan has not started")
	ErrAlreadyPaid      = errors.New("installment already paid")
	ErrSweepInProgress  = errors.New("sweep already in progress")
	ErrPartialSweep     = errors.New("sweep finished with failures")
	ErrForbidden        = errors.New("forbidden")
	ErrDuplicate        = errors.New("already exists")
)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Unavailable wraps a store failure so callers can match ErrStorageUnavailable.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
