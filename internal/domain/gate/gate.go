// Package gate provides the trigger guards shared by the detection
// strategies: a time-based cooldown that keeps a repetition from being
// counted twice, and a two-threshold hysteresis that rejects noise-level
// oscillation around a trigger boundary.
package gate

import "time"

// Cooldown allows at most one trigger per refractory window. The zero
// window disables the guard.
type Cooldown struct {
	window time.Duration
	last   time.Time
}

// NewCooldown creates a cooldown with the given refractory window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window}
}

// TryFire records a trigger at ts and reports whether it is allowed.
// A trigger inside the window of the previous accepted one is rejected
// and does not extend the window.
func (c *Cooldown) TryFire(ts time.Time) bool {
	if !c.last.IsZero() && c.window > 0 && ts.Sub(c.last) < c.window {
		return false
	}
	c.last = ts
	return true
}

// Remaining returns how much of the window is left at ts.
func (c *Cooldown) Remaining(ts time.Time) time.Duration {
	if c.last.IsZero() {
		return 0
	}
	left := c.window - ts.Sub(c.last)
	if left < 0 {
		return 0
	}
	return left
}

// Reset clears the cooldown so the next trigger is always accepted.
func (c *Cooldown) Reset() { c.last = time.Time{} }

// Hysteresis is a Schmitt trigger over a scalar magnitude: it arms when the
// value exceeds the on-threshold and only re-arms after the value falls
// below the off-threshold. Observe reports rising edges.
type Hysteresis struct {
	on, off float64
	active  bool
}

// NewHysteresis creates a trigger with the given thresholds. When off ≥ on
// the off-threshold is pulled down to half the on-threshold, which keeps
// the trigger well-formed for configs that only set one value.
func NewHysteresis(on, off float64) *Hysteresis {
	if off >= on {
		off = on / 2
	}
	return &Hysteresis{on: on, off: off}
}

// Observe feeds a magnitude and reports true exactly once per excursion
// above the on-threshold.
func (h *Hysteresis) Observe(v float64) bool {
	switch {
	case !h.active && v >= h.on:
		h.active = true
		return true
	case h.active && v <= h.off:
		h.active = false
	}
	return false
}

// Active reports whether the trigger is currently armed.
func (h *Hysteresis) Active() bool { return h.active }

// Reset disarms the trigger.
func (h *Hysteresis) Reset() { h.active = false }
