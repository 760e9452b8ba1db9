package services

import (
	"context"
	"log/slog"
	"time"

	"confbook/internal/domain"
)

// DefaultOfferTimeout is how long a waitlisted user has to confirm an offered
// slot before being requeued at the tail.
const DefaultOfferTimeout = time.Hour

// WaitlistScheduler offers freed slots to waitlist heads and requeues offers
// that were never confirmed. It is invoked synchronously from the booking
// service when a cancellation frees a slot, and periodically via Tick or Run.
type WaitlistScheduler struct {
	regs         *Registries
	offerTimeout time.Duration
	tickInterval time.Duration
	logger       *slog.Logger
}

// NewWaitlistScheduler creates a WaitlistScheduler. Non-positive durations
// fall back to defaults (1h offer timeout, 1m tick interval).
func NewWaitlistScheduler(regs *Registries, offerTimeout, tickInterval time.Duration, logger *slog.Logger) *WaitlistScheduler {
	if offerTimeout <= 0 {
		offerTimeout = DefaultOfferTimeout
	}
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	return &WaitlistScheduler{
		regs:         regs,
		offerTimeout: offerTimeout,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

// OnSlotFreed offers the conference's free slots to the head of its waitlist.
// Unknown conferences are a no-op.
func (w *WaitlistScheduler) OnSlotFreed(conferenceName string) {
	w.regs.lockAll()
	defer w.regs.unlockAll()

	conf, ok := w.regs.Conferences.GetLocked(conferenceName)
	if !ok {
		return
	}
	w.offerSlotsLocked(conf, time.Now().UTC())
}

// Tick requeues expired offers on the conference. now is explicit so callers
// control the clock.
func (w *WaitlistScheduler) Tick(conferenceName string, now time.Time) {
	w.regs.lockAll()
	defer w.regs.unlockAll()

	conf, ok := w.regs.Conferences.GetLocked(conferenceName)
	if !ok {
		return
	}
	w.requeueExpiredLocked(conf, now)
}

// Run ticks every conference at the configured interval until ctx is
// cancelled.
func (w *WaitlistScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.logger.Info("waitlist scheduler started",
		"tick_interval", w.tickInterval, "offer_timeout", w.offerTimeout)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("waitlist scheduler stopped")
			return
		case now := <-ticker.C:
			for _, name := range w.regs.Conferences.Keys() {
				w.Tick(name, now.UTC())
			}
		}
	}
}

// offerSlotsLocked stamps an offer on the waitlisted booking of the first
// user in the queue for each free slot. Users must confirm separately; the
// queue itself is not changed except to drop stale entries whose booking is
// no longer waitlisted. A head that already holds an offer is stamped again,
// restarting its expiry window. All registry locks are held.
func (w *WaitlistScheduler) offerSlotsLocked(conf *domain.Conference, now time.Time) {
	free := conf.SlotsRemaining()
	pos := 0
	for offered := 0; offered < free && pos < len(conf.Waitlist); {
		userID := conf.Waitlist[pos]
		booking, ok := w.waitlistedBookingLocked(conf.Name, userID)
		if !ok {
			// Stale entry: the booking was cancelled or purged.
			conf.RemoveFromWaitlist(userID, now)
			continue
		}
		t := now
		booking.OfferedAt = &t
		booking.UpdatedAt = now
		w.logger.Info("slot offered",
			"conference", conf.Name, "user", userID, "booking_id", booking.ID)
		offered++
		pos++
	}
}

// requeueExpiredLocked moves every user whose offer is older than the timeout
// to the waitlist tail, preserving everyone else's relative order. The
// booking stays waitlisted; its offer is cleared so a fresh one can be made
// to the new head. All registry locks are held.
func (w *WaitlistScheduler) requeueExpiredLocked(conf *domain.Conference, now time.Time) {
	queued := append([]string(nil), conf.Waitlist...)
	for _, userID := range queued {
		booking, ok := w.waitlistedBookingLocked(conf.Name, userID)
		if !ok || booking.OfferedAt == nil {
			continue
		}
		if now.Sub(*booking.OfferedAt) <= w.offerTimeout {
			continue
		}
		conf.MoveWaitlistToTail(userID, now)
		booking.OfferedAt = nil
		booking.UpdatedAt = now
		w.logger.Info("expired offer requeued",
			"conference", conf.Name, "user", userID, "booking_id", booking.ID)
	}
}

// waitlistedBookingLocked finds the user's waitlisted booking for the named
// conference. All registry locks are held.
func (w *WaitlistScheduler) waitlistedBookingLocked(conferenceName, userID string) (*domain.Booking, bool) {
	user, ok := w.regs.Users.GetLocked(userID)
	if !ok {
		return nil, false
	}
	for _, b := range user.Bookings {
		if b.ConferenceName == conferenceName && b.Status == domain.StatusWaitlisted {
			return b, true
		}
	}
	return nil, false
}

var _ domain.Scheduler = (*WaitlistScheduler)(nil)
