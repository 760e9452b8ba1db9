package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confbook/internal/domain"
)

func TestScheduler_OffersOnlyAsManySlotsAsFree(t *testing.T) {
	env := newTestEnv(t)
	env.mustConference(t, "x", baseTime, baseTime.Add(time.Hour), 2)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		env.mustUser(t, id)
	}

	bookA := env.mustBook(t, "x", "a", domain.StatusConfirmed)
	env.mustBook(t, "x", "b", domain.StatusConfirmed)
	bC := env.mustBook(t, "x", "c", domain.StatusWaitlisted)
	bD := env.mustBook(t, "x", "d", domain.StatusWaitlisted)
	bE := env.mustBook(t, "x", "e", domain.StatusWaitlisted)

	// One cancellation frees one slot: only the head gets an offer.
	require.Equal(t, domain.CancelOutcomeCancelled, env.bookings.Cancel(bookA.ID))
	assert.NotNil(t, env.booking(t, bC.ID).OfferedAt)
	assert.Nil(t, env.booking(t, bD.ID).OfferedAt)
	assert.Nil(t, env.booking(t, bE.ID).OfferedAt)

	// The queue itself is unchanged; offers do not pop entries.
	assert.Equal(t, []string{"c", "d", "e"}, env.conference(t, "x").Waitlist)
}

func TestScheduler_OnSlotFreed_UnknownConferenceIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.sched.OnSlotFreed("missing")
}

func TestScheduler_OnSlotFreed_DropsStaleWaitlistEntries(t *testing.T) {
	env := newTestEnv(t)
	env.mustConference(t, "x", baseTime, baseTime.Add(time.Hour), 1)
	env.mustUser(t, "alice")

	// A waitlist entry with no corresponding waitlisted booking.
	require.NoError(t, env.regs.Conferences.Update("x", func(c *domain.Conference) {
		_ = c.PushWaitlist("ghost", time.Now().UTC())
		_ = c.PushWaitlist("alice", time.Now().UTC())
	}))
	require.NoError(t, env.regs.Users.Put("ghost", domain.NewUser("ghost", nil, time.Now().UTC())))

	now := time.Now().UTC()
	b := domain.NewBooking(99, "x", "alice", domain.StatusWaitlisted, now)
	require.NoError(t, env.regs.Bookings.Put(99, b))
	require.NoError(t, env.regs.Users.Update("alice", func(u *domain.User) {
		u.Bookings[99] = b
	}))

	env.sched.OnSlotFreed("x")

	conf := env.conference(t, "x")
	assert.Equal(t, []string{"alice"}, conf.Waitlist, "stale entry is dropped")
	assert.NotNil(t, env.booking(t, 99).OfferedAt, "live head gets the offer")
}

func TestScheduler_Tick_RequeuesExpiredOffer(t *testing.T) {
	env := newTestEnv(t)
	env.mustConference(t, "x", baseTime, baseTime.Add(time.Hour), 1)
	for _, id := range []string{"a", "b", "c", "d"} {
		env.mustUser(t, id)
	}

	env.mustBook(t, "x", "a", domain.StatusConfirmed)
	bB := env.mustBook(t, "x", "b", domain.StatusWaitlisted)
	env.mustBook(t, "x", "c", domain.StatusWaitlisted)
	env.mustBook(t, "x", "d", domain.StatusWaitlisted)

	// Backdate an offer to b beyond the timeout.
	stale := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, env.regs.Bookings.Update(bB.ID, func(b *domain.Booking) {
		b.OfferedAt = &stale
	}))

	env.sched.Tick("x", time.Now().UTC())

	conf := env.conference(t, "x")
	assert.Equal(t, []string{"c", "d", "b"}, conf.Waitlist,
		"expired head moves to the tail; everyone else keeps relative order")

	got := env.booking(t, bB.ID)
	assert.Equal(t, domain.StatusWaitlisted, got.Status, "requeue is not a cancellation")
	assert.Nil(t, got.OfferedAt, "the expired offer is cleared")
}

func TestScheduler_Tick_RequeuesEveryExpiredOffer(t *testing.T) {
	env := newTestEnv(t)
	env.mustConference(t, "x", baseTime, baseTime.Add(time.Hour), 1)
	for _, id := range []string{"a", "c", "d", "e"} {
		env.mustUser(t, id)
	}

	env.mustBook(t, "x", "a", domain.StatusConfirmed)
	bC := env.mustBook(t, "x", "c", domain.StatusWaitlisted)
	bD := env.mustBook(t, "x", "d", domain.StatusWaitlisted)
	env.mustBook(t, "x", "e", domain.StatusWaitlisted)

	stale := time.Now().UTC().Add(-2 * time.Hour)
	for _, id := range []int64{bC.ID, bD.ID} {
		require.NoError(t, env.regs.Bookings.Update(id, func(b *domain.Booking) {
			b.OfferedAt = &stale
		}))
	}

	env.sched.Tick("x", time.Now().UTC())

	conf := env.conference(t, "x")
	assert.Equal(t, []string{"e", "c", "d"}, conf.Waitlist,
		"each expired entry moves to the tail in queue order")
	assert.Nil(t, env.booking(t, bC.ID).OfferedAt)
	assert.Nil(t, env.booking(t, bD.ID).OfferedAt)
}

func TestScheduler_OfferPassRestampsStandingOffer(t *testing.T) {
	env := newTestEnv(t)
	env.mustConference(t, "x", baseTime, baseTime.Add(time.Hour), 2)
	for _, id := range []string{"a", "b", "c"} {
		env.mustUser(t, id)
	}

	bookA := env.mustBook(t, "x", "a", domain.StatusConfirmed)
	bookB := env.mustBook(t, "x", "b", domain.StatusConfirmed)
	bC := env.mustBook(t, "x", "c", domain.StatusWaitlisted)

	require.Equal(t, domain.CancelOutcomeCancelled, env.bookings.Cancel(bookA.ID))
	first := env.booking(t, bC.ID).OfferedAt
	require.NotNil(t, first)

	// Backdate, then free another slot: the standing offer is stamped again
	// and its expiry window restarts.
	stale := time.Now().UTC().Add(-30 * time.Minute)
	require.NoError(t, env.regs.Bookings.Update(bC.ID, func(b *domain.Booking) {
		b.OfferedAt = &stale
	}))
	require.Equal(t, domain.CancelOutcomeCancelled, env.bookings.Cancel(bookB.ID))

	second := env.booking(t, bC.ID).OfferedAt
	require.NotNil(t, second)
	assert.True(t, second.After(stale), "offer timestamp restarts on a new slot-freed pass")
}

func TestScheduler_Tick_FreshOfferStaysPut(t *testing.T) {
	env := newTestEnv(t)
	env.mustConference(t, "x", baseTime, baseTime.Add(time.Hour), 1)
	env.mustUser(t, "a")
	env.mustUser(t, "b")

	bookA := env.mustBook(t, "x", "a", domain.StatusConfirmed)
	bB := env.mustBook(t, "x", "b", domain.StatusWaitlisted)

	// Cancellation stamps a fresh offer on b.
	require.Equal(t, domain.CancelOutcomeCancelled, env.bookings.Cancel(bookA.ID))
	require.NotNil(t, env.booking(t, bB.ID).OfferedAt)

	env.sched.Tick("x", time.Now().UTC())

	conf := env.conference(t, "x")
	assert.Equal(t, []string{"b"}, conf.Waitlist)
	assert.NotNil(t, env.booking(t, bB.ID).OfferedAt, "fresh offers survive a tick")
}

func TestScheduler_Run_StopsOnContextCancel(t *testing.T) {
	env := newTestEnv(t)
	sched := NewWaitlistScheduler(env.regs, time.Hour, time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
