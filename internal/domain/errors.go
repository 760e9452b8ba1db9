package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the booking core. Callers classify failures with
// errors.Is; detail is added at the failure site with fmt.Errorf and %w.
var (
	// ErrNotFound is returned when a referenced conference, user, or booking
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input to a create operation is malformed
	// or duplicates an existing record. No state is mutated.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a booking request conflicts with existing
	// state (duplicate active booking, schedule overlap).
	ErrConflict = errors.New("conflict")
)

// ConflictError is a booking conflict. When the conflict is a duplicate active
// booking, ExistingBookingID carries the ID of the booking already held.
type ConflictError struct {
	ExistingBookingID int64
	Reason            string
}

func (e *ConflictError) Error() string {
	if e.ExistingBookingID != 0 {
		return fmt.Sprintf("%s (existing booking %d)", e.Reason, e.ExistingBookingID)
	}
	return e.Reason
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
