// Package popup owns the popup window's visibility state machine:
// show/toggle decisions under rapid repeated triggers, the two-phase fade
// sequence and the auto-hide countdown.
package popup

import (
	"sync"
	"time"

	"glance/internal/surface"
)

// State of the popup window.
type State int

const (
	Hidden State = iota
	VisibleIdle
	VisibleFading
)

// DebounceWindow is how long after showing the popup an identical trigger
// is treated as OS key-repeat noise rather than a toggle. Empirically
// tuned in the original, kept as a constant rather than guessed at.
const DebounceWindow = 800 * time.Millisecond

// Decision is the outcome of a trigger while the machine was in a given
// state. The orchestrator uses it to decide whether to run a request.
type Decision int

const (
	// DecisionShow means the popup was hidden and has been shown.
	DecisionShow Decision = iota
	// DecisionUpdate means the popup stays visible and content should be
	// replaced in place.
	DecisionUpdate
	// DecisionToggleOff means the trigger was interpreted as "toggle off"
	// and the fade sequence has started.
	DecisionToggleOff
	// DecisionIgnore means the trigger was key-repeat noise.
	DecisionIgnore
)

// Lifecycle is the popup visibility state machine. All timers are owned
// here; starting a timer always stops the previous one for the same
// purpose.
type Lifecycle struct {
	surface    surface.Surface
	clock      Clock
	autoHideMs func() int

	mu              sync.Mutex
	state           State
	shownAt         time.Time
	lastFingerprint string
	inFlight        bool
	hovered         bool
	autoHideTimer   Timer
}

// NewLifecycle builds the machine in the Hidden state. autoHideMs is read
// on every (re)start of the countdown so settings changes apply live.
func NewLifecycle(s surface.Surface, clock Clock, autoHideMs func() int) *Lifecycle {
	if clock == nil {
		clock = NewClock()
	}
	return &Lifecycle{surface: s, clock: clock, autoHideMs: autoHideMs}
}

// HandleTrigger advances the machine for a hotkey trigger carrying the
// request fingerprint (hash of captured text + preset id).
func (l *Lifecycle) HandleTrigger(fingerprint string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case Hidden, VisibleFading:
		// A trigger during the fade re-shows rather than racing the
		// finalize step.
		l.showLocked(fingerprint)
		return DecisionShow
	default: // VisibleIdle
	}

	if fingerprint == l.lastFingerprint {
		if l.inFlight {
			return DecisionIgnore
		}
		if l.clock.Now().Sub(l.shownAt) <= DebounceWindow {
			return DecisionIgnore
		}
		l.beginFadeLocked()
		return DecisionToggleOff
	}

	// New request while visible: swap content without repositioning.
	l.lastFingerprint = fingerprint
	l.restartAutoHideLocked()
	return DecisionUpdate
}

// RequestHide starts the fade sequence if the popup is visible.
func (l *Lifecycle) RequestHide() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == VisibleIdle {
		l.beginFadeLocked()
	}
}

// FinalizeHide is invoked by the window once its fade animation ends; it
// actually hides the window and clears timer state.
func (l *Lifecycle) FinalizeHide() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopAutoHideLocked()
	l.state = Hidden
	l.surface.Hide()
}

// Reset returns the machine to its initial state, used when the popup
// window is recreated.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopAutoHideLocked()
	l.state = Hidden
	l.lastFingerprint = ""
	l.inFlight = false
	l.hovered = false
}

// SetInFlight marks whether a provider request is outstanding.
func (l *Lifecycle) SetInFlight(inFlight bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = inFlight
}

// InFlight reports whether a provider request is outstanding.
func (l *Lifecycle) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// SetHovered suspends the auto-hide countdown while the pointer is over
// the popup and restarts it when the pointer leaves.
func (l *Lifecycle) SetHovered(hovered bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hovered = hovered
	if hovered {
		l.stopAutoHideLocked()
		return
	}
	if l.state == VisibleIdle {
		l.restartAutoHideLocked()
	}
}

// ContentUpdated restarts the countdown after a result lands, unless the
// user is hovering.
func (l *Lifecycle) ContentUpdated() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == VisibleIdle && !l.hovered {
		l.restartAutoHideLocked()
	}
}

// State returns the current machine state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Lifecycle) showLocked(fingerprint string) {
	l.surface.ShowNearCursor()
	l.state = VisibleIdle
	l.shownAt = l.clock.Now()
	l.lastFingerprint = fingerprint
	l.restartAutoHideLocked()
}

func (l *Lifecycle) beginFadeLocked() {
	l.stopAutoHideLocked()
	l.state = VisibleFading
	l.surface.StartFadeOut()
}

func (l *Lifecycle) restartAutoHideLocked() {
	l.stopAutoHideLocked()
	if l.hovered || l.state != VisibleIdle {
		return
	}
	ms := l.autoHideMs()
	if ms <= 0 {
		return
	}
	l.autoHideTimer = l.clock.AfterFunc(time.Duration(ms)*time.Millisecond, l.autoHideFired)
}

func (l *Lifecycle) autoHideFired() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == VisibleIdle {
		l.beginFadeLocked()
	}
}

func (l *Lifecycle) stopAutoHideLocked() {
	if l.autoHideTimer != nil {
		l.autoHideTimer.Stop()
		l.autoHideTimer = nil
	}
}
