package domain

import (
	"fmt"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed  BookingStatus = "confirmed"
	StatusWaitlisted BookingStatus = "waitlisted"
	StatusCancelled  BookingStatus = "cancelled"
)

// validTransitions is the closed set of allowed status moves. Cancelled is
// terminal; a confirmed booking may not return to the waitlist.
var validTransitions = map[BookingStatus]map[BookingStatus]bool{
	StatusWaitlisted: {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:  {StatusCancelled: true},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether a booking in status s may move to the given
// status.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	return validTransitions[s][to]
}

// Booking represents one user–conference reservation.
type Booking struct {
	ID             int64         `json:"id"`
	ConferenceName string        `json:"conference_name"`
	UserID         string        `json:"user_id"`
	Status         BookingStatus `json:"status"`
	// OfferedAt is set only while the booking is waitlisted and a freed slot
	// has been offered to its user.
	OfferedAt *time.Time `json:"offered_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewBooking returns a new Booking in the given initial status.
func NewBooking(id int64, conferenceName, userID string, status BookingStatus, now time.Time) *Booking {
	return &Booking{
		ID:             id,
		ConferenceName: conferenceName,
		UserID:         userID,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Transition moves the booking to the given status, rejecting moves outside
// the lifecycle (e.g. cancelled → confirmed). Leaving the waitlisted state
// invalidates any pending slot offer.
func (b *Booking) Transition(to BookingStatus, now time.Time) error {
	if !b.Status.CanTransitionTo(to) {
		return fmt.Errorf("invalid booking transition %s → %s", b.Status, to)
	}
	b.Status = to
	b.OfferedAt = nil
	b.UpdatedAt = now
	return nil
}

// Active reports whether the booking is still live (not cancelled).
func (b *Booking) Active() bool {
	return b.Status != StatusCancelled
}

// Clone returns a copy safe to hand outside the registry locks.
func (b *Booking) Clone() *Booking {
	cp := *b
	if b.OfferedAt != nil {
		t := *b.OfferedAt
		cp.OfferedAt = &t
	}
	return &cp
}

// BookingStatusInfo is the read-only status view exposed to callers polling a
// booking, including whether a waitlisted user currently has a slot open.
type BookingStatusInfo struct {
	BookingID     int64         `json:"booking_id"`
	Status        BookingStatus `json:"status"`
	OfferedAt     *time.Time    `json:"offered_at,omitempty"`
	SlotAvailable bool          `json:"slot_available"`
}

// CancelOutcome describes the result of a cancellation request. Cancelling an
// unknown booking is an outcome, not an error.
type CancelOutcome string

const (
	CancelOutcomeCancelled       CancelOutcome = "booking cancelled"
	CancelOutcomeBookingNotFound CancelOutcome = "booking does not exist"
	CancelOutcomeUserNotFound    CancelOutcome = "user does not exist"
	CancelOutcomeNotCancellable  CancelOutcome = "booking already cancelled"
)

// BookingService orchestrates booking creation, cancellation, and waitlist
// promotion across the conference, user, and booking registries.
type BookingService interface {
	// Book reserves a slot on the named conference for the user, waitlisting
	// when the conference is full. The returned booking is a copy.
	Book(conferenceName, userID string) (*Booking, error)

	// Cancel cancels the booking, releasing its slot and triggering a
	// slot-offer pass on the conference. Missing bookings yield a descriptive
	// outcome rather than an error.
	Cancel(bookingID int64) CancelOutcome

	// ConfirmWaitlisted promotes the user's waitlisted booking to confirmed if
	// the conference has a free slot. Returns false when the booking is not
	// waitlisted or no slot is available.
	ConfirmWaitlisted(userID string, bookingID int64) (bool, error)

	// Status reports the booking's current status for the owning user.
	Status(userID string, bookingID int64) (*BookingStatusInfo, error)
}
