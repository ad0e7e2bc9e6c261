package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrValidation   = errors.New("validation_error")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage_failure")

	// ErrDuplicate is returned by a Tx when a write hits a unique constraint.
	ErrDuplicate = errors.New("duplicate")

	ErrBadCreds          = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrNoItems           = fmt.Errorf("%w: no items selected", ErrValidation)
	ErrNothingToPurchase = fmt.Errorf("%w: all selected courses are already owned", ErrValidation)
	ErrIllegalTransition = fmt.Errorf("%w: illegal status transition", ErrValidation)
)

// storageErr tags an unexpected gateway error so callers can tell it from a business failure.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrValidation, ErrConflict, ErrStorage} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
