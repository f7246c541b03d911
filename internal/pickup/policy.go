// Package pickup computes pickup-window state from an order's ready time.
// Everything here is pure: same inputs, same outputs, safe from any goroutine.
package pickup

import (
	"fmt"
	"time"
)

// Defaults used when configuration supplies nothing.
const (
	DefaultWindow                = time.Hour
	DefaultExpiringSoonThreshold = 15 * time.Minute
)

// Policy holds the pickup-window constants. Values come from configuration,
// not literals, because the threshold and cadence are operational policy.
type Policy struct {
	Window                time.Duration
	ExpiringSoonThreshold time.Duration
}

// NewPolicy returns a Policy, substituting defaults for non-positive values.
func NewPolicy(window, threshold time.Duration) Policy {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultExpiringSoonThreshold
	}
	return Policy{Window: window, ExpiringSoonThreshold: threshold}
}

// Remaining returns the time left in the pickup window and whether any remains.
// ok is false when the window has elapsed (remaining <= 0).
func (p Policy) Remaining(readyAt, now time.Time) (time.Duration, bool) {
	d := readyAt.Add(p.Window).Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// Expired reports whether the pickup window has fully elapsed.
func (p Policy) Expired(readyAt, now time.Time) bool {
	_, ok := p.Remaining(readyAt, now)
	return !ok
}

// IsExpiringSoon is true for exactly the interval (expiry - threshold, expiry]:
// some time remains, but no more than the threshold.
func (p Policy) IsExpiringSoon(readyAt, now time.Time) bool {
	d, ok := p.Remaining(readyAt, now)
	return ok && d <= p.ExpiringSoonThreshold
}

// FormatRemaining renders a remaining duration as whole minutes, or "Expired"
// once nothing remains. Sub-minute remainders round up so the display never
// shows "0 min" for a still-live window.
func FormatRemaining(d time.Duration, ok bool) string {
	if !ok {
		return "Expired"
	}
	mins := int((d + time.Minute - 1) / time.Minute)
	return fmt.Sprintf("%d min", mins)
}
