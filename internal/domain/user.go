package domain

import (
	"sort"
	"time"
)

// MaxInterests bounds the interest list on a user record.
const MaxInterests = 50

// User holds a registered user and the set of bookings they own. Guarded by
// the user registry lock.
type User struct {
	ID        string   `json:"id"`
	Interests []string `json:"interests"`
	// Bookings maps booking ID to the user's bookings. Each entry is also
	// registered in the global booking registry; both are updated together
	// inside one critical section.
	Bookings  map[int64]*Booking `json:"bookings"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewUser returns a new User with an empty booking set. Field validation is
// done by the user service before construction.
func NewUser(id string, interests []string, now time.Time) *User {
	return &User{
		ID:        id,
		Interests: interests,
		Bookings:  make(map[int64]*Booking),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ActiveBookingFor returns the user's non-cancelled booking for the named
// conference, if any. A user holds at most one.
func (u *User) ActiveBookingFor(conferenceName string) (*Booking, bool) {
	for _, b := range u.Bookings {
		if b.ConferenceName == conferenceName && b.Active() {
			return b, true
		}
	}
	return nil, false
}

// ActiveBookings returns the user's non-cancelled bookings, ordered by
// booking ID.
func (u *User) ActiveBookings() []*Booking {
	var out []*Booking
	for _, b := range u.Bookings {
		if b.Active() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UserSnapshot is the read-only view of a user and their bookings exposed to
// the presentation layer.
type UserSnapshot struct {
	ID        string     `json:"id"`
	Interests []string   `json:"interests"`
	Bookings  []*Booking `json:"bookings"`
}

// UserService creates users and exposes read-only snapshots.
type UserService interface {
	// Create validates and registers a new user with an empty booking set.
	// Duplicate IDs fail validation.
	Create(id string, interests []string) (*User, error)

	// Snapshot returns the user's current state, bookings ordered by ID.
	Snapshot(id string) (*UserSnapshot, error)

	// List returns snapshots of all users, sorted by ID.
	List() []*UserSnapshot
}
