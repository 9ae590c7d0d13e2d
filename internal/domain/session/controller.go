package session

// Package session contains the client-facing session lifecycle state machine.
// It mirrors the server token's expiry to drive the warning/forced-logout UX:
// the displayed countdown slides forward on activity, but the true
// authorization boundary stays the signed token the edge gate re-verifies on
// every request. Clock and scheduler are injected so transitions are testable
// without wall-clock delays.

import (
	"sync"
	"time"
)

// State is a lifecycle phase of the controller.
type State string

const (
	// StateActive means the session is live and no warning is showing.
	StateActive State = "active"
	// StateWarning means expiry is near and a countdown is being displayed.
	StateWarning State = "warning"
	// StateExpired means the session lapsed and a forced logout fired.
	StateExpired State = "expired"
	// StateLoggedOut is the absorbing state entered on explicit logout.
	StateLoggedOut State = "logged_out"
)

// Defaults for the lifecycle timing policy.
const (
	DefaultSessionLength    = 24 * time.Hour
	DefaultWarningWindow    = 2 * time.Minute
	DefaultCountdownTick    = time.Second
	DefaultLivenessInterval = time.Minute
)

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler schedules a callback after a delay. The real implementation wraps
// time.AfterFunc; tests substitute a virtual scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Callbacks are the controller's outputs. All are optional; they fire with the
// controller's lock held, so they must not call back into the controller
// (dispatch UI updates asynchronously instead).
type Callbacks struct {
	// OnWarning fires on the Active → Warning transition with the remaining time.
	OnWarning func(remaining time.Duration)
	// OnCountdown fires every countdown tick while warning, with the remaining time.
	OnCountdown func(remaining time.Duration)
	// OnExpired fires once when the session lapses (forced logout).
	OnExpired func()
	// OnLoggedOut fires once on explicit logout.
	OnLoggedOut func()
}

// Options configures a Controller. Zero values take the defaults above.
type Options struct {
	SessionLength    time.Duration
	WarningWindow    time.Duration
	CountdownTick    time.Duration
	LivenessInterval time.Duration
	Clock            Clock
	Scheduler        Scheduler
	Callbacks        Callbacks
}

// Controller is the timer-driven session lifecycle state machine.
//
//	Active → Warning → Expired
//	   \________\________→ LoggedOut (absorbing, explicit logout)
//
// Activity or an explicit extension while Active or Warning resets the window
// to the full session length and returns to Active. A liveness sweep re-checks
// wall-clock expiry independently of the scheduled timers, covering
// background-tab timer throttling where callbacks fire late or not at all.
type Controller struct {
	mu sync.Mutex

	sessionLength    time.Duration
	warningWindow    time.Duration
	countdownTick    time.Duration
	livenessInterval time.Duration

	clock     Clock
	scheduler Scheduler
	callbacks Callbacks

	state     State
	expiresAt time.Time

	warningTimer   Timer
	expiryTimer    Timer
	countdownTimer Timer
	livenessTimer  Timer

	// generation invalidates callbacks from timers that were scheduled before
	// the most recent re-arm; Stop alone cannot win the race against a timer
	// already firing.
	generation uint64
}

// NewController constructs a Controller in the LoggedOut state; call Arm to
// start tracking a session.
func NewController(opts Options) *Controller {
	c := &Controller{
		sessionLength:    opts.SessionLength,
		warningWindow:    opts.WarningWindow,
		countdownTick:    opts.CountdownTick,
		livenessInterval: opts.LivenessInterval,
		clock:            opts.Clock,
		scheduler:        opts.Scheduler,
		callbacks:        opts.Callbacks,
		state:            StateLoggedOut,
	}
	if c.sessionLength <= 0 {
		c.sessionLength = DefaultSessionLength
	}
	if c.warningWindow <= 0 {
		c.warningWindow = DefaultWarningWindow
	}
	if c.countdownTick <= 0 {
		c.countdownTick = DefaultCountdownTick
	}
	if c.livenessInterval <= 0 {
		c.livenessInterval = DefaultLivenessInterval
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.scheduler == nil {
		c.scheduler = realScheduler{}
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ExpiresAt returns the advisory expiry the controller is tracking.
func (c *Controller) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}

// Remaining returns the time left before expiry, never negative.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.expiresAt.Sub(c.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Arm starts (or restarts) tracking a session whose token expires at
// expiresAt. A zero or already-past expiry fails safe: the controller goes
// straight to Expired rather than silently preserving access.
func (c *Controller) Arm(expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if expiresAt.IsZero() || !expiresAt.After(c.clock.Now()) {
		c.expiresAt = expiresAt
		c.expireLocked()
		return
	}
	c.armLocked(expiresAt)
}

// Activity records a qualifying user-activity event (click, keypress, scroll,
// pointer move). While Active or Warning it slides the window to the full
// session length and returns to Active; in terminal states it is a no-op.
func (c *Controller) Activity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive && c.state != StateWarning {
		return
	}
	c.armLocked(c.clock.Now().Add(c.sessionLength))
}

// Extend is the explicit "stay signed in" response to the warning dialog.
// Equivalent to an activity event.
func (c *Controller) Extend() {
	c.Activity()
}

// Logout transitions to the absorbing LoggedOut state from anywhere, cancels
// all timers, and fires OnLoggedOut.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoggedOut {
		return
	}
	c.cancelTimersLocked()
	c.state = StateLoggedOut
	c.expiresAt = time.Time{}
	if c.callbacks.OnLoggedOut != nil {
		c.callbacks.OnLoggedOut()
	}
}

// Stop cancels all timers without a state transition. Call on teardown so no
// timer leaks across navigation.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimersLocked()
}

// armLocked (re)schedules the warning, expiry, and liveness timers for the
// given expiry. Re-arming first clears anything previously scheduled, so the
// operation is idempotent and never leaves duplicate transitions pending.
func (c *Controller) armLocked(expiresAt time.Time) {
	c.cancelTimersLocked()
	c.state = StateActive
	c.expiresAt = expiresAt
	gen := c.generation

	now := c.clock.Now()
	untilWarning := expiresAt.Add(-c.warningWindow).Sub(now)
	untilExpiry := expiresAt.Sub(now)

	if untilWarning <= 0 {
		// Already inside the warning window.
		c.enterWarningLocked()
	} else {
		c.warningTimer = c.scheduler.AfterFunc(untilWarning, func() {
			c.onTimer(gen, (*Controller).timerWarning)
		})
	}
	c.expiryTimer = c.scheduler.AfterFunc(untilExpiry, func() {
		c.onTimer(gen, (*Controller).timerExpiry)
	})
	c.scheduleLivenessLocked(gen)
}

// onTimer runs a timer action unless the controller was re-armed or torn down
// after the timer was scheduled.
func (c *Controller) onTimer(gen uint64, action func(*Controller)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	action(c)
}

func (c *Controller) timerWarning() {
	if c.state != StateActive {
		return
	}
	c.enterWarningLocked()
}

func (c *Controller) timerExpiry() {
	if c.state != StateActive && c.state != StateWarning {
		return
	}
	c.expireLocked()
}

func (c *Controller) timerCountdown() {
	if c.state != StateWarning {
		return
	}
	remaining := c.expiresAt.Sub(c.clock.Now())
	if remaining <= 0 {
		c.expireLocked()
		return
	}
	if c.callbacks.OnCountdown != nil {
		c.callbacks.OnCountdown(remaining)
	}
	c.scheduleCountdownLocked(c.generation)
}

// timerLiveness re-examines wall-clock expiry regardless of the scheduled
// transition timers; a throttled tab can delay or drop those.
func (c *Controller) timerLiveness() {
	if c.state != StateActive && c.state != StateWarning {
		return
	}
	now := c.clock.Now()
	if !now.Before(c.expiresAt) {
		c.expireLocked()
		return
	}
	if c.state == StateActive && !now.Before(c.expiresAt.Add(-c.warningWindow)) {
		c.enterWarningLocked()
	}
	c.scheduleLivenessLocked(c.generation)
}

func (c *Controller) enterWarningLocked() {
	c.state = StateWarning
	remaining := c.expiresAt.Sub(c.clock.Now())
	if remaining <= 0 {
		c.expireLocked()
		return
	}
	if c.callbacks.OnWarning != nil {
		c.callbacks.OnWarning(remaining)
	}
	c.scheduleCountdownLocked(c.generation)
}

func (c *Controller) expireLocked() {
	c.cancelTimersLocked()
	c.state = StateExpired
	if c.callbacks.OnExpired != nil {
		c.callbacks.OnExpired()
	}
}

func (c *Controller) scheduleCountdownLocked(gen uint64) {
	c.countdownTimer = c.scheduler.AfterFunc(c.countdownTick, func() {
		c.onTimer(gen, (*Controller).timerCountdown)
	})
}

func (c *Controller) scheduleLivenessLocked(gen uint64) {
	c.livenessTimer = c.scheduler.AfterFunc(c.livenessInterval, func() {
		c.onTimer(gen, (*Controller).timerLiveness)
	})
}

func (c *Controller) cancelTimersLocked() {
	c.generation++
	for _, t := range []Timer{c.warningTimer, c.expiryTimer, c.countdownTimer, c.livenessTimer} {
		if t != nil {
			t.Stop()
		}
	}
	c.warningTimer, c.expiryTimer, c.countdownTimer, c.livenessTimer = nil, nil, nil, nil
}
