// Package sched provides the simulation clock and the cooperative task
// scheduler that replaces per-entity coroutines.
//
// Time is simulated: a Clock only moves when the match loop advances it, so a
// run is reproducible regardless of wall-clock speed. Timed behaviour (ability
// phases, status ticks, arming fuses, wave delays) is expressed as tasks that
// the Scheduler resumes in arrival order on each Advance.
package sched

import "time"

// Clock is simulated time elapsed since the start of a match.
//
// It is not safe for concurrent use; the caller must serialise access.
type Clock struct {
	now time.Duration
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Duration { return c.now }

// Advance moves the clock forward by dt and returns the new time.
//
// Precondition: dt >= 0.
func (c *Clock) Advance(dt time.Duration) time.Duration {
	if dt < 0 {
		panic("sched.Clock.Advance: dt must not be negative")
	}
	c.now += dt
	return c.now
}

// Seconds converts fractional seconds from content files into a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
