package controls

import "time"

// Auto-repeat timing. A held direction repeats 20x a second after a
// half-second hold.
const (
	RepeatInitialDelay    = 500 * time.Millisecond
	RepeatSubsequentDelay = 50 * time.Millisecond
)

// RepeatTimer tracks the auto-repeat countdown for one button. The zero
// value is unarmed and never fires.
type RepeatTimer struct {
	armed    bool
	deadline time.Duration
}

// Armed reports whether a countdown is active.
func (r *RepeatTimer) Armed() bool {
	return r.armed
}

// Reset disarms the timer.
func (r *RepeatTimer) Reset() {
	*r = RepeatTimer{}
}

// Arm starts the initial countdown on the frame a press is detected.
// Calls without a press are ignored.
func (r *RepeatTimer) Arm(pressed bool, now time.Duration) {
	if !pressed {
		return
	}
	r.armed = true
	r.deadline = now + RepeatInitialDelay
}

// ShouldRepeat reports whether a held button produces a synthetic press
// this frame. Releasing the button disarms the timer.
func (r *RepeatTimer) ShouldRepeat(held bool, now time.Duration) bool {
	if !r.armed {
		// Never pushed since the last release or reinit, even if held.
		return false
	}

	if !held {
		r.Reset()
		return false
	}

	if now >= r.deadline {
		// Step from the old deadline so frame quantisation does not
		// stretch the cadence, but never schedule into the past.
		r.deadline += RepeatSubsequentDelay
		if r.deadline <= now {
			r.deadline = now + RepeatSubsequentDelay
		}
		return true
	}

	return false
}
