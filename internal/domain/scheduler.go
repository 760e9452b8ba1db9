package domain

import (
	"context"
	"time"
)

// Scheduler drives waitlist slot offers. It is invoked synchronously when a
// slot frees up, and periodically (via Run or an external caller invoking
// Tick) to requeue offers that were never confirmed.
type Scheduler interface {
	// OnSlotFreed offers the conference's currently free slots to the head of
	// its waitlist, stamping each offer with the current time. Unknown
	// conferences are a no-op.
	OnSlotFreed(conferenceName string)

	// Tick requeues every waitlisted booking on the conference whose offer is
	// older than the configured timeout, moving its user to the waitlist tail.
	// now is explicit so callers and tests control the clock.
	Tick(conferenceName string, now time.Time)

	// Run ticks all conferences at a fixed interval until ctx is cancelled.
	Run(ctx context.Context)
}
