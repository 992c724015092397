package sched_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/sched"
)

func newScheduler() (*sched.Clock, *sched.Scheduler) {
	clock := &sched.Clock{}
	return clock, sched.NewScheduler(clock)
}

func step(clock *sched.Clock, s *sched.Scheduler, dt time.Duration) {
	clock.Advance(dt)
	s.Advance()
}

func TestClock_Advance_PanicsOnNegative(t *testing.T) {
	clock := &sched.Clock{}
	assert.Panics(t, func() { clock.Advance(-time.Second) })
}

func TestScheduler_Run_LeadingStepsRunImmediately(t *testing.T) {
	_, s := newScheduler()
	ran := false
	h := s.Run(sched.Do(func() { ran = true }))
	assert.True(t, ran)
	assert.True(t, h.Done())
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_After_FiresOnceAtDeadline(t *testing.T) {
	clock, s := newScheduler()
	calls := 0
	s.After(time.Second, func() { calls++ })

	step(clock, s, 999*time.Millisecond)
	assert.Equal(t, 0, calls)
	step(clock, s, time.Millisecond)
	assert.Equal(t, 1, calls)
	step(clock, s, 5*time.Second)
	assert.Equal(t, 1, calls)
}

func TestScheduler_Cancel_PreventsFurtherSteps(t *testing.T) {
	clock, s := newScheduler()
	var phases []string
	h := s.Run(
		sched.Do(func() { phases = append(phases, "windup") }),
		sched.Wait(time.Second),
		sched.Do(func() { phases = append(phases, "strike") }),
	)
	step(clock, s, 500*time.Millisecond)
	h.Cancel()
	step(clock, s, time.Second)
	assert.Equal(t, []string{"windup"}, phases)
	assert.False(t, h.Done())
	assert.False(t, h.Active())
}

func TestScheduler_Wait_MeasuresFromPreviousStep(t *testing.T) {
	clock, s := newScheduler()
	var at []time.Duration
	s.Run(
		sched.Wait(time.Second),
		sched.Do(func() { at = append(at, clock.Now()) }),
		sched.Wait(time.Second),
		sched.Do(func() { at = append(at, clock.Now()) }),
	)
	// One large step completes both phases because the second wait starts at
	// the virtual deadline of the first.
	step(clock, s, 2*time.Second)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, at)
}

func TestScheduler_Until_PollsCondition(t *testing.T) {
	clock, s := newScheduler()
	ready := false
	fired := false
	s.Run(sched.Until(func() bool { return ready }), sched.Do(func() { fired = true }))
	step(clock, s, time.Second)
	assert.False(t, fired)
	ready = true
	step(clock, s, time.Millisecond)
	assert.True(t, fired)
}

func TestScheduler_Every_CatchesUp(t *testing.T) {
	clock, s := newScheduler()
	calls := 0
	s.Every(100*time.Millisecond, func() bool {
		calls++
		return calls < 5
	})
	step(clock, s, 350*time.Millisecond)
	assert.Equal(t, 3, calls)
	step(clock, s, time.Second)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_Advance_ArrivalOrder(t *testing.T) {
	clock, s := newScheduler()
	var order []string
	s.After(time.Second, func() { order = append(order, "first") })
	s.After(time.Second, func() { order = append(order, "second") })
	s.After(time.Second, func() { order = append(order, "third") })
	step(clock, s, time.Second)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestScheduler_TaskStartedDuringAdvance_RunsSamePass(t *testing.T) {
	clock, s := newScheduler()
	var order []string
	s.After(time.Second, func() {
		order = append(order, "outer")
		s.Run(sched.Do(func() { order = append(order, "inner") }))
	})
	step(clock, s, time.Second)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestScheduler_SelfCancelInsideStep(t *testing.T) {
	clock, s := newScheduler()
	var h *sched.Handle
	calls := 0
	h = s.Every(time.Second, func() bool {
		calls++
		h.Cancel()
		return true
	})
	step(clock, s, 5*time.Second)
	assert.Equal(t, 1, calls)
}

func TestGroup_CancelAll(t *testing.T) {
	clock, s := newScheduler()
	var g sched.Group
	calls := 0
	g.Add(s.After(time.Second, func() { calls++ }))
	g.Add(s.After(2*time.Second, func() { calls++ }))
	g.CancelAll()
	step(clock, s, 3*time.Second)
	assert.Equal(t, 0, calls)
}

func TestPropertyEveryCallCountMatchesElapsed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		interval := time.Duration(rapid.IntRange(1, 500).Draw(rt, "interval_ms")) * time.Millisecond
		steps := rapid.SliceOfN(rapid.IntRange(0, 1000), 1, 50).Draw(rt, "steps_ms")

		clock, s := newScheduler()
		calls := 0
		s.Every(interval, func() bool {
			calls++
			return true
		})
		for _, ms := range steps {
			step(clock, s, time.Duration(ms)*time.Millisecond)
		}
		require.Equal(rt, int(clock.Now()/interval), calls)
	})
}
