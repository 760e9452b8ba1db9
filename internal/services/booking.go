package services

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"confbook/internal/domain"
)

type bookingService struct {
	regs   *Registries
	sched  *WaitlistScheduler
	nextID atomic.Int64
	logger *slog.Logger
}

// NewBookingService creates a BookingService backed by the shared registries.
// The scheduler is invoked inside the cancellation critical section when a
// slot frees up.
func NewBookingService(regs *Registries, sched *WaitlistScheduler, logger *slog.Logger) domain.BookingService {
	return &bookingService{
		regs:   regs,
		sched:  sched,
		logger: logger,
	}
}

// Book implements the creation protocol as one critical section over all
// three registries: existence checks, duplicate-booking check, then either
// waitlist (conference full) or overlap check plus confirmed registration.
func (s *bookingService) Book(conferenceName, userID string) (*domain.Booking, error) {
	s.regs.lockAll()
	defer s.regs.unlockAll()

	conf, ok := s.regs.Conferences.GetLocked(conferenceName)
	if !ok {
		return nil, fmt.Errorf("conference %q: %w", conferenceName, domain.ErrNotFound)
	}
	user, ok := s.regs.Users.GetLocked(userID)
	if !ok {
		return nil, fmt.Errorf("user %q: %w", userID, domain.ErrNotFound)
	}
	if existing, ok := user.ActiveBookingFor(conferenceName); ok {
		return nil, &domain.ConflictError{
			ExistingBookingID: existing.ID,
			Reason:            fmt.Sprintf("user %q is already registered for conference %q", userID, conferenceName),
		}
	}

	now := time.Now().UTC()
	var status domain.BookingStatus
	if conf.SlotsRemaining() == 0 {
		if err := conf.PushWaitlist(userID, now); err != nil {
			return nil, &domain.ConflictError{Reason: err.Error()}
		}
		status = domain.StatusWaitlisted
	} else {
		if overlapping, ok := s.overlappingBookingLocked(user, conf); ok {
			return nil, &domain.ConflictError{
				ExistingBookingID: overlapping.ID,
				Reason:            fmt.Sprintf("user %q already holds a booking overlapping conference %q", userID, conferenceName),
			}
		}
		if err := conf.AddAttendee(userID, now); err != nil {
			return nil, &domain.ConflictError{Reason: err.Error()}
		}
		status = domain.StatusConfirmed
	}

	id := s.nextID.Add(1)
	booking := domain.NewBooking(id, conferenceName, userID, status, now)
	s.regs.Bookings.PutLocked(id, booking)
	user.Bookings[id] = booking
	user.UpdatedAt = now

	s.logger.Info("booking created",
		"booking_id", id, "conference", conferenceName, "user", userID, "status", status)
	return booking.Clone(), nil
}

// Cancel releases the booking's slot and triggers a slot-offer pass. Missing
// or already-cancelled bookings are reported as outcomes, not errors.
func (s *bookingService) Cancel(bookingID int64) domain.CancelOutcome {
	s.regs.lockAll()
	defer s.regs.unlockAll()

	booking, ok := s.regs.Bookings.GetLocked(bookingID)
	if !ok {
		return domain.CancelOutcomeBookingNotFound
	}
	user, ok := s.regs.Users.GetLocked(booking.UserID)
	if !ok {
		return domain.CancelOutcomeUserNotFound
	}
	if !booking.Active() {
		return domain.CancelOutcomeNotCancellable
	}

	now := time.Now().UTC()
	wasConfirmed := booking.Status == domain.StatusConfirmed
	if err := booking.Transition(domain.StatusCancelled, now); err != nil {
		return domain.CancelOutcomeNotCancellable
	}
	user.UpdatedAt = now

	conf, ok := s.regs.Conferences.GetLocked(booking.ConferenceName)
	if ok {
		if wasConfirmed {
			conf.RemoveAttendee(user.ID, now)
			s.sched.offerSlotsLocked(conf, now)
		} else {
			conf.RemoveFromWaitlist(user.ID, now)
		}
	}

	s.logger.Info("booking cancelled",
		"booking_id", bookingID, "conference", booking.ConferenceName, "user", user.ID,
		"was_confirmed", wasConfirmed)
	return domain.CancelOutcomeCancelled
}

// ConfirmWaitlisted promotes the user's waitlisted booking when a slot is
// free, then purges the user from any overlapping conference's waitlist.
func (s *bookingService) ConfirmWaitlisted(userID string, bookingID int64) (bool, error) {
	s.regs.lockAll()
	defer s.regs.unlockAll()

	user, ok := s.regs.Users.GetLocked(userID)
	if !ok {
		return false, fmt.Errorf("user %q: %w", userID, domain.ErrNotFound)
	}
	booking, ok := user.Bookings[bookingID]
	if !ok {
		return false, fmt.Errorf("booking %d: %w", bookingID, domain.ErrNotFound)
	}
	if booking.Status != domain.StatusWaitlisted {
		return false, nil
	}
	conf, ok := s.regs.Conferences.GetLocked(booking.ConferenceName)
	if !ok {
		return false, fmt.Errorf("conference %q: %w", booking.ConferenceName, domain.ErrNotFound)
	}
	if conf.SlotsRemaining() == 0 {
		return false, nil
	}

	now := time.Now().UTC()
	conf.RemoveFromWaitlist(userID, now)
	if err := conf.AddAttendee(userID, now); err != nil {
		return false, err
	}
	if err := booking.Transition(domain.StatusConfirmed, now); err != nil {
		return false, err
	}
	user.UpdatedAt = now
	s.purgeOverlappingWaitlistsLocked(user, conf, now)

	s.logger.Info("booking confirmed from waitlist",
		"booking_id", bookingID, "conference", conf.Name, "user", userID)
	return true, nil
}

// Status reports the booking's status for the owning user, including whether
// a waitlisted booking currently has a slot open.
func (s *bookingService) Status(userID string, bookingID int64) (*domain.BookingStatusInfo, error) {
	s.regs.lockAll()
	defer s.regs.unlockAll()

	user, ok := s.regs.Users.GetLocked(userID)
	if !ok {
		return nil, fmt.Errorf("user %q: %w", userID, domain.ErrNotFound)
	}
	booking, ok := user.Bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", bookingID, domain.ErrNotFound)
	}

	info := &domain.BookingStatusInfo{
		BookingID: bookingID,
		Status:    booking.Status,
	}
	if booking.OfferedAt != nil {
		t := *booking.OfferedAt
		info.OfferedAt = &t
	}
	if booking.Status == domain.StatusWaitlisted {
		if conf, ok := s.regs.Conferences.GetLocked(booking.ConferenceName); ok {
			info.SlotAvailable = conf.SlotsRemaining() > 0
		}
	}
	return info, nil
}

// overlappingBookingLocked returns the user's first active booking whose
// conference overlaps conf. All registry locks are held.
func (s *bookingService) overlappingBookingLocked(user *domain.User, conf *domain.Conference) (*domain.Booking, bool) {
	for _, b := range user.ActiveBookings() {
		other, ok := s.regs.Conferences.GetLocked(b.ConferenceName)
		if !ok {
			continue
		}
		if other.Overlaps(conf) {
			return b, true
		}
	}
	return nil, false
}

// purgeOverlappingWaitlistsLocked removes the user from the waitlist of every
// conference overlapping conf, deleting the corresponding waitlisted booking
// from both the user's set and the global registry. Invoked after a promotion
// to keep the no-overlap invariant. All registry locks are held.
func (s *bookingService) purgeOverlappingWaitlistsLocked(user *domain.User, conf *domain.Conference, now time.Time) {
	for _, b := range user.ActiveBookings() {
		if b.Status != domain.StatusWaitlisted || b.ConferenceName == conf.Name {
			continue
		}
		other, ok := s.regs.Conferences.GetLocked(b.ConferenceName)
		if !ok || !other.Overlaps(conf) {
			continue
		}
		other.RemoveFromWaitlist(user.ID, now)
		delete(user.Bookings, b.ID)
		s.regs.Bookings.RemoveLocked(b.ID)
		s.logger.Info("purged overlapping waitlist entry",
			"booking_id", b.ID, "conference", other.Name, "user", user.ID)
	}
}
