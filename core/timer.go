package core

import "time"

// Clock returns a free-running microsecond counter. It wraps after about
// 71 minutes; compare readings with TimeBefore, never with <.
type Clock func() uint32

// MonotonicClock returns a Clock counting microseconds from the call.
func MonotonicClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start) / time.Microsecond)
	}
}

// TimeBefore reports whether a is before b, tolerating wraparound.
func TimeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
