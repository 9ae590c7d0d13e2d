package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeTimer struct {
	when    time.Time
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped
	t.stopped = true
	return active
}

// fakeScheduler records scheduled callbacks and fires them when the harness
// advances the clock past their deadline.
type fakeScheduler struct {
	clock  *fakeClock
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{when: s.clock.now.Add(d), fn: f}
	s.timers = append(s.timers, t)
	return t
}

// advance moves the clock to target, firing due timers in deadline order.
// Callbacks may schedule new timers; those are picked up in the same pass.
func (s *fakeScheduler) advance(target time.Time) {
	for {
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}
		s.clock.now = next.when
		next.stopped = true
		next.fn()
	}
	s.clock.now = target
}

// harness bundles a controller with its virtual time source and callback
// counters.
type harness struct {
	clock     *fakeClock
	scheduler *fakeScheduler
	ctrl      *Controller

	warnings   []time.Duration
	countdowns []time.Duration
	expired    int
	loggedOut  int
}

const (
	testSessionLength = 30 * time.Minute
	testWarningWindow = 2 * time.Minute
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	scheduler := &fakeScheduler{clock: clock}
	h := &harness{clock: clock, scheduler: scheduler}
	h.ctrl = NewController(Options{
		SessionLength:    testSessionLength,
		WarningWindow:    testWarningWindow,
		CountdownTick:    time.Second,
		LivenessInterval: time.Minute,
		Clock:            clock,
		Scheduler:        scheduler,
		Callbacks: Callbacks{
			OnWarning:   func(remaining time.Duration) { h.warnings = append(h.warnings, remaining) },
			OnCountdown: func(remaining time.Duration) { h.countdowns = append(h.countdowns, remaining) },
			OnExpired:   func() { h.expired++ },
			OnLoggedOut: func() { h.loggedOut++ },
		},
	})
	return h
}

func (h *harness) advanceBy(d time.Duration) {
	h.scheduler.advance(h.clock.now.Add(d))
}

func (h *harness) armFullSession() time.Time {
	expiresAt := h.clock.now.Add(testSessionLength)
	h.ctrl.Arm(expiresAt)
	return expiresAt
}

func TestController_StartsLoggedOut(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, StateLoggedOut, h.ctrl.State())
}

func TestController_ArmEntersActive(t *testing.T) {
	h := newHarness(t)
	expiresAt := h.armFullSession()

	assert.Equal(t, StateActive, h.ctrl.State())
	assert.Equal(t, expiresAt, h.ctrl.ExpiresAt())
	assert.Equal(t, testSessionLength, h.ctrl.Remaining())
}

func TestController_WarningAtExactBoundary(t *testing.T) {
	h := newHarness(t)
	h.armFullSession()

	// One tick before the boundary nothing has happened.
	h.advanceBy(testSessionLength - testWarningWindow - time.Second)
	assert.Equal(t, StateActive, h.ctrl.State())
	assert.Empty(t, h.warnings)

	// Crossing sessionLength - warningWindow enters Warning exactly once.
	h.advanceBy(time.Second)
	assert.Equal(t, StateWarning, h.ctrl.State())
	require.Len(t, h.warnings, 1)
	assert.Equal(t, testWarningWindow, h.warnings[0])
}

func TestController_CountdownTicks(t *testing.T) {
	h := newHarness(t)
	h.armFullSession()

	h.advanceBy(testSessionLength - testWarningWindow)
	require.Equal(t, StateWarning, h.ctrl.State())

	h.advanceBy(3 * time.Second)
	require.Len(t, h.countdowns, 3)
	assert.Equal(t, testWarningWindow-1*time.Second, h.countdowns[0])
	assert.Equal(t, testWarningWindow-2*time.Second, h.countdowns[1])
	assert.Equal(t, testWarningWindow-3*time.Second, h.countdowns[2])
}

func TestController_ExpiresAtDeadline(t *testing.T) {
	h := newHarness(t)
	h.armFullSession()

	h.advanceBy(testSessionLength)
	assert.Equal(t, StateExpired, h.ctrl.State())
	assert.Equal(t, 1, h.expired)
	assert.Zero(t, h.ctrl.Remaining())

	// Terminal: more time changes nothing.
	h.advanceBy(time.Hour)
	assert.Equal(t, StateExpired, h.ctrl.State())
	assert.Equal(t, 1, h.expired)
}

func TestController_ActivitySlidesWindow(t *testing.T) {
	h := newHarness(t)
	h.armFullSession()

	// Ten minutes in, activity resets the window to the full session length.
	h.advanceBy(10 * time.Minute)
	h.ctrl.Activity()
	newExpiry := h.clock.now.Add(testSessionLength)
	assert.Equal(t, newExpiry, h.ctrl.ExpiresAt())

	// The original expiry passes without any transition.
	h.advanceBy(testSessionLength - 10*time.Minute)
	assert.Equal(t, StateActive, h.ctrl.State())
	assert.Zero(t, h.expired)

	// The slid expiry is still honored.
	h.advanceBy(10 * time.Minute)
	assert.Equal(t, StateExpired, h.ctrl.State())
	assert.Equal(t, 1, h.expired)
}

func TestController_ExtendDuringWarningReturnsToActive(t *testing.T) {
	h := newHarness(t)
	h.armFullSession()

	h.advanceBy(testSessionLength - testWarningWindow)
	require.Equal(t, StateWarning, h.ctrl.State())

	h.ctrl.Extend()
	assert.Equal(t, StateActive, h.ctrl.State())
	assert.Equal(t, testSessionLength, h.ctrl.Remaining())

	// Countdown from the abandoned warning must not keep ticking.
	before := len(h.countdowns)
	h.advanceBy(5 * time.Second)
	assert.Equal(t, before, len(h.countdowns))
}

func TestController_ActivityIgnoredInTerminalStates(t *testing.T) {
	h := newHarness(t)
	h.armFullSession()
	h.advanceBy(testSessionLength)
	require.Equal(t, StateExpired, h.ctrl.State())

	h.ctrl.Activity()
	assert.Equal(t, StateExpired, h.ctrl.State())

	h.ctrl.Logout()
	require.Equal(t, StateLoggedOut, h.ctrl.State())
	h.ctrl.Activity()
	assert.Equal(t, StateLoggedOut, h.ctrl.State())
}

func TestController_LogoutIsAbsorbingAndIdempotent(t *testing.T) {
	h := newHarness(t)
	h.armFullSession()

	h.ctrl.Logout()
	assert.Equal(t, StateLoggedOut, h.ctrl.State())
	assert.Equal(t, 1, h.loggedOut)

	h.ctrl.Logout()
	assert.Equal(t, 1, h.loggedOut)

	// Cancelled timers stay silent.
	h.advanceBy(2 * testSessionLength)
	assert.Equal(t, StateLoggedOut, h.ctrl.State())
	assert.Zero(t, h.expired)
	assert.Empty(t, h.warnings)
}

func TestController_ArmWithPastExpiryFailsSafe(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Arm(h.clock.now.Add(-time.Minute))
	assert.Equal(t, StateExpired, h.ctrl.State())
	assert.Equal(t, 1, h.expired)
}

func TestController_ArmWithZeroExpiryFailsSafe(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Arm(time.Time{})
	assert.Equal(t, StateExpired, h.ctrl.State())
	assert.Equal(t, 1, h.expired)
}

func TestController_ArmInsideWarningWindow(t *testing.T) {
	h := newHarness(t)

	// Token with under two minutes left shows the warning immediately.
	h.ctrl.Arm(h.clock.now.Add(30 * time.Second))
	assert.Equal(t, StateWarning, h.ctrl.State())
	require.Len(t, h.warnings, 1)
	assert.Equal(t, 30*time.Second, h.warnings[0])
}

func TestController_RearmCancelsPreviousSchedule(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Arm(h.clock.now.Add(5 * time.Minute))
	h.ctrl.Arm(h.clock.now.Add(testSessionLength))

	// The first schedule's warning point passes silently.
	h.advanceBy(5 * time.Minute)
	assert.Equal(t, StateActive, h.ctrl.State())
	assert.Empty(t, h.warnings)
	assert.Zero(t, h.expired)
}

func TestController_StopCancelsTimersWithoutTransition(t *testing.T) {
	h := newHarness(t)
	h.armFullSession()

	h.ctrl.Stop()
	h.advanceBy(2 * testSessionLength)

	assert.Equal(t, StateActive, h.ctrl.State())
	assert.Zero(t, h.expired)
	assert.Empty(t, h.warnings)
}

// Liveness tests simulate a throttled tab by suppressing the transition timers
// and firing only the periodic sweep. armLocked schedules warning, expiry,
// then liveness in that order.

func TestController_LivenessSweepCatchesMissedExpiry(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Arm(h.clock.now.Add(testSessionLength))

	timers := h.scheduler.timers
	require.Len(t, timers, 3)
	warning, expiry, liveness := timers[0], timers[1], timers[2]
	warning.stopped = true
	expiry.stopped = true

	// The tab sleeps past expiry; only the sweep fires afterwards.
	h.clock.now = h.clock.now.Add(testSessionLength + time.Minute)
	liveness.fn()

	assert.Equal(t, StateExpired, h.ctrl.State())
	assert.Equal(t, 1, h.expired)
}

func TestController_LivenessSweepForcesWarningEntry(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Arm(h.clock.now.Add(testSessionLength))

	timers := h.scheduler.timers
	require.Len(t, timers, 3)
	timers[0].stopped = true // warning timer never fires

	// Wake up inside the warning window.
	h.clock.now = h.clock.now.Add(testSessionLength - time.Minute)
	timers[2].fn()

	assert.Equal(t, StateWarning, h.ctrl.State())
	require.Len(t, h.warnings, 1)
	assert.Equal(t, time.Minute, h.warnings[0])
}

func TestController_CountdownReachingZeroExpires(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Arm(h.clock.now.Add(90 * time.Second))
	require.Equal(t, StateWarning, h.ctrl.State())

	h.advanceBy(90 * time.Second)
	assert.Equal(t, StateExpired, h.ctrl.State())
	assert.Equal(t, 1, h.expired)
}

func TestController_DefaultsApplied(t *testing.T) {
	c := NewController(Options{})
	assert.Equal(t, StateLoggedOut, c.State())
	assert.Equal(t, DefaultSessionLength, c.sessionLength)
	assert.Equal(t, DefaultWarningWindow, c.warningWindow)
	assert.Equal(t, DefaultCountdownTick, c.countdownTick)
	assert.Equal(t, DefaultLivenessInterval, c.livenessInterval)
}
