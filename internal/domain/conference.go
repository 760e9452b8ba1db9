package domain

import (
	"fmt"
	"time"
)

// Bounds enforced on conference records.
const (
	MaxTopicsPerConference = 10
	MaxConferenceDuration  = 12 * time.Hour
)

// Conference holds capacity, the confirmed attendee list, and the FIFO
// waitlist for one scheduled conference. All fields are guarded by the
// conference registry lock; mutation goes through the service layer.
type Conference struct {
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Topics    []string  `json:"topics"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Capacity  int       `json:"capacity"`
	// Attendees holds confirmed user IDs in registration order. Invariant:
	// len(Attendees) <= Capacity.
	Attendees []string `json:"attendees"`
	// Waitlist holds user IDs waiting for a slot, FIFO, no duplicates.
	Waitlist  []string  `json:"waitlist"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConference returns a new Conference with empty attendee and waitlist
// state. Field validation is done by the conference service before
// construction.
func NewConference(name, location string, topics []string, start, end time.Time, capacity int, now time.Time) *Conference {
	return &Conference{
		Name:      name,
		Location:  location,
		Topics:    topics,
		StartTime: start,
		EndTime:   end,
		Capacity:  capacity,
		Attendees: []string{},
		Waitlist:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SlotsRemaining returns the number of free slots; never negative.
func (c *Conference) SlotsRemaining() int {
	n := c.Capacity - len(c.Attendees)
	if n < 0 {
		return 0
	}
	return n
}

// Overlaps reports whether the two conferences' [start, end) windows
// intersect. Touching endpoints do not overlap.
func (c *Conference) Overlaps(other *Conference) bool {
	return c.StartTime.Before(other.EndTime) && c.EndTime.After(other.StartTime)
}

// IsAttendee reports whether the user holds a confirmed slot.
func (c *Conference) IsAttendee(userID string) bool {
	for _, id := range c.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// OnWaitlist reports whether the user is queued on the waitlist.
func (c *Conference) OnWaitlist(userID string) bool {
	for _, id := range c.Waitlist {
		if id == userID {
			return true
		}
	}
	return false
}

// AddAttendee appends the user to the attendee list, consuming one slot.
func (c *Conference) AddAttendee(userID string, now time.Time) error {
	if c.SlotsRemaining() == 0 {
		return fmt.Errorf("conference %q is full", c.Name)
	}
	c.Attendees = append(c.Attendees, userID)
	c.UpdatedAt = now
	return nil
}

// RemoveAttendee removes the user from the attendee list, freeing one slot.
// Returns false if the user was not an attendee.
func (c *Conference) RemoveAttendee(userID string, now time.Time) bool {
	for i, id := range c.Attendees {
		if id == userID {
			c.Attendees = append(c.Attendees[:i], c.Attendees[i+1:]...)
			c.UpdatedAt = now
			return true
		}
	}
	return false
}

// PushWaitlist appends the user to the waitlist tail. Duplicates are
// rejected.
func (c *Conference) PushWaitlist(userID string, now time.Time) error {
	if c.OnWaitlist(userID) {
		return fmt.Errorf("user %q is already on the waitlist for %q", userID, c.Name)
	}
	c.Waitlist = append(c.Waitlist, userID)
	c.UpdatedAt = now
	return nil
}

// RemoveFromWaitlist removes the user from the waitlist, preserving the
// relative order of everyone else. Returns false if the user was not queued.
func (c *Conference) RemoveFromWaitlist(userID string, now time.Time) bool {
	for i, id := range c.Waitlist {
		if id == userID {
			c.Waitlist = append(c.Waitlist[:i], c.Waitlist[i+1:]...)
			c.UpdatedAt = now
			return true
		}
	}
	return false
}

// MoveWaitlistToTail requeues the user at the waitlist tail without changing
// anyone else's relative order. Returns false if the user was not queued.
func (c *Conference) MoveWaitlistToTail(userID string, now time.Time) bool {
	if !c.RemoveFromWaitlist(userID, now) {
		return false
	}
	c.Waitlist = append(c.Waitlist, userID)
	return true
}

// ConferenceSnapshot is the read-only view of conference state exposed to the
// presentation layer.
type ConferenceSnapshot struct {
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	Topics         []string  `json:"topics"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Capacity       int       `json:"capacity"`
	SlotsRemaining int       `json:"slots_remaining"`
	Attendees      []string  `json:"attendees"`
	Waitlist       []string  `json:"waitlist"`
}

// ConferenceService creates conferences and exposes read-only snapshots.
type ConferenceService interface {
	// Create validates and registers a new conference with empty attendee and
	// waitlist state. Duplicate names fail validation.
	Create(name, location string, topics []string, start, end time.Time, capacity int) (*Conference, error)

	// Snapshot returns the conference's current state for display. Snapshots
	// may be served from a short-lived cache.
	Snapshot(name string) (*ConferenceSnapshot, error)

	// List returns snapshots of all conferences, sorted by name.
	List() []*ConferenceSnapshot
}
