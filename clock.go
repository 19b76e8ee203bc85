package spanz

import (
	"time"

	"github.com/zoobzio/clockz"
)

// ClockKind selects which clock ClockSource.Now reads.
type ClockKind int

const (
	// WallClock readings are nanoseconds since the Unix epoch.
	WallClock ClockKind = iota
	// Monotonic readings are nanoseconds since the source was created.
	// Only differences between them are meaningful.
	Monotonic
)

// ClockSource samples wall and monotonic time as unsigned nanoseconds.
// A reading that cannot be represented yields 0 instead of an error.
type ClockSource struct {
	clock clockz.Clock
	base  time.Time
}

// NewClockSource returns a source reading from clock.
// A nil clock selects clockz.RealClock.
func NewClockSource(clock clockz.Clock) *ClockSource {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &ClockSource{clock: clock, base: clock.Now()}
}

// Now returns the current reading of the requested clock.
func (c *ClockSource) Now(kind ClockKind) uint64 {
	now := c.clock.Now()
	var ns int64
	switch kind {
	case WallClock:
		if now.IsZero() {
			return 0
		}
		ns = now.UnixNano()
	case Monotonic:
		// time.Time.Sub uses the monotonic reading when both sides carry one.
		ns = int64(now.Sub(c.base))
	default:
		return 0
	}
	if ns < 0 {
		return 0
	}
	return uint64(ns)
}

// Clock returns the underlying clock.
func (c *ClockSource) Clock() clockz.Clock {
	return c.clock
}
