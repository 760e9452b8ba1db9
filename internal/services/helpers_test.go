package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"confbook/internal/domain"
)

// baseTime is a fixed UTC schedule anchor for tests.
var baseTime = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	regs        *Registries
	sched       *WaitlistScheduler
	conferences domain.ConferenceService
	users       domain.UserService
	bookings    domain.BookingService
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestEnv builds the full service graph over fresh registries. t may be
// nil when called from property-test bodies.
func newTestEnv(_ *testing.T) *testEnv {
	logger := testLogger()
	regs := NewRegistries()
	sched := NewWaitlistScheduler(regs, time.Hour, time.Minute, logger)
	return &testEnv{
		regs:        regs,
		sched:       sched,
		conferences: NewConferenceService(regs, 0, 2*time.Second, logger),
		users:       NewUserService(regs, 0, logger),
		bookings:    NewBookingService(regs, sched, logger),
	}
}

func (e *testEnv) mustUser(t *testing.T, id string) {
	t.Helper()
	_, err := e.users.Create(id, []string{"testing"})
	require.NoError(t, err)
}

func (e *testEnv) mustConference(t *testing.T, name string, start, end time.Time, capacity int) {
	t.Helper()
	_, err := e.conferences.Create(name, "test hall", []string{"systems"}, start, end, capacity)
	require.NoError(t, err)
}

func (e *testEnv) mustBook(t *testing.T, conferenceName, userID string, want domain.BookingStatus) *domain.Booking {
	t.Helper()
	b, err := e.bookings.Book(conferenceName, userID)
	require.NoError(t, err)
	require.Equal(t, want, b.Status)
	return b
}

// conference reads live conference state under the registry lock and returns
// a detached copy.
func (e *testEnv) conference(t *testing.T, name string) *domain.Conference {
	t.Helper()
	var cp domain.Conference
	err := e.regs.Conferences.View(name, func(c *domain.Conference) {
		cp = *c
		cp.Attendees = append([]string(nil), c.Attendees...)
		cp.Waitlist = append([]string(nil), c.Waitlist...)
	})
	require.NoError(t, err)
	return &cp
}

// booking reads live booking state under the registry lock.
func (e *testEnv) booking(t *testing.T, id int64) domain.Booking {
	t.Helper()
	var cp domain.Booking
	err := e.regs.Bookings.View(id, func(b *domain.Booking) {
		cp = *b.Clone()
	})
	require.NoError(t, err)
	return cp
}
