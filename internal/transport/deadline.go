package transport

import "time"

// Deadline converts one caller-supplied timeout into a budget shared by a
// sequence of Transport reads. The zero Deadline is unbounded.
type Deadline struct {
	at time.Time
}

// NewDeadline starts a budget of d from now. d <= 0 means unbounded.
func NewDeadline(d time.Duration) Deadline {
	if d <= 0 {
		return Deadline{}
	}
	return Deadline{at: time.Now().Add(d)}
}

// Remaining returns the timeout to hand the next read: zero for unbounded,
// and a minimal positive value once the budget is spent so the read fails
// with ErrTimeout instead of blocking forever.
func (d Deadline) Remaining() time.Duration {
	if d.at.IsZero() {
		return 0
	}
	r := time.Until(d.at)
	if r <= 0 {
		return time.Nanosecond
	}
	return r
}

// Expired reports whether the budget has been spent.
func (d Deadline) Expired() bool {
	return !d.at.IsZero() && !time.Now().Before(d.at)
}
