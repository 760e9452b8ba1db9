package services

import (
	"confbook/internal/domain"
	"confbook/internal/registry"
)

// Registries bundles the three process-wide registries. They are constructed
// once at startup and passed by reference to every service.
//
// Lock order for critical sections spanning more than one registry:
// conferences → users → bookings. Book, Cancel, and ConfirmWaitlisted hold
// all three locks for the full read-check-mutate sequence so cross-entity
// invariants (capacity vs. attendee count, booking status vs. registry
// membership) are never observable in a torn state.
type Registries struct {
	Conferences *registry.Registry[string, *domain.Conference]
	Users       *registry.Registry[string, *domain.User]
	Bookings    *registry.Registry[int64, *domain.Booking]
}

// NewRegistries creates the three empty registries.
func NewRegistries() *Registries {
	return &Registries{
		Conferences: registry.New[string, *domain.Conference](),
		Users:       registry.New[string, *domain.User](),
		Bookings:    registry.New[int64, *domain.Booking](),
	}
}

// lockAll acquires all three registry locks in the fixed global order.
func (r *Registries) lockAll() {
	r.Conferences.Lock()
	r.Users.Lock()
	r.Bookings.Lock()
}

// unlockAll releases the locks in reverse order.
func (r *Registries) unlockAll() {
	r.Bookings.Unlock()
	r.Users.Unlock()
	r.Conferences.Unlock()
}
