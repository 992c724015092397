package sched

import "time"

type stepKind int

const (
	stepDo stepKind = iota
	stepWait
	stepUntil
	stepRepeat
)

// Step is one phase of a task sequence.
type Step struct {
	kind   stepKind
	d      time.Duration
	cond   func() bool
	fn     func()
	repeat func() bool
}

// Do runs fn and moves on immediately.
func Do(fn func()) Step { return Step{kind: stepDo, fn: fn} }

// Wait suspends the sequence for d of simulated time, measured from the
// moment the previous step completed.
func Wait(d time.Duration) Step { return Step{kind: stepWait, d: d} }

// Until suspends the sequence until cond reports true. cond is polled once per
// Advance.
func Until(cond func() bool) Step { return Step{kind: stepUntil, cond: cond} }

// Repeat calls fn every interval until fn returns false. Missed intervals are
// caught up within one Advance, so the number of calls depends only on
// elapsed simulated time.
//
// Precondition: interval > 0.
func Repeat(interval time.Duration, fn func() bool) Step {
	if interval <= 0 {
		panic("sched.Repeat: interval must be positive")
	}
	return Step{kind: stepRepeat, d: interval, repeat: fn}
}

// Handle controls one scheduled task.
type Handle struct {
	cancelled bool
	done      bool
}

// Cancel stops the task. A cancelled task never runs another step. Safe to
// call multiple times, and from inside the task's own steps.
func (h *Handle) Cancel() {
	if h != nil {
		h.cancelled = true
	}
}

// Release is Cancel; it lets a Handle be owned by an entity lifetime.
func (h *Handle) Release() { h.Cancel() }

// Done reports whether the task ran to completion.
func (h *Handle) Done() bool { return h != nil && h.done }

// Active reports whether the task will run further steps.
func (h *Handle) Active() bool { return h != nil && !h.done && !h.cancelled }

type task struct {
	h     *Handle
	steps []Step
	idx   int
	mark  time.Duration // virtual time at which the current step began
}

// Scheduler resumes tasks in arrival order.
//
// It is not safe for concurrent use; the caller must serialise access.
type Scheduler struct {
	clock *Clock
	tasks []*task
}

// NewScheduler creates a Scheduler driven by clock.
//
// Precondition: clock must be non-nil.
func NewScheduler(clock *Clock) *Scheduler {
	if clock == nil {
		panic("sched.NewScheduler: clock must not be nil")
	}
	return &Scheduler{clock: clock}
}

// Clock returns the clock driving the scheduler.
func (s *Scheduler) Clock() *Clock { return s.clock }

// Now is shorthand for s.Clock().Now().
func (s *Scheduler) Now() time.Duration { return s.clock.now }

// Run starts a task made of steps. Leading steps that need no waiting execute
// before Run returns; the rest resume on later Advance calls.
//
// Postcondition: Returns a non-nil Handle.
func (s *Scheduler) Run(steps ...Step) *Handle {
	t := &task{h: &Handle{}, steps: steps, mark: s.clock.now}
	s.tasks = append(s.tasks, t)
	s.resume(t)
	return t.h
}

// After runs fn once d from now.
func (s *Scheduler) After(d time.Duration, fn func()) *Handle {
	return s.Run(Wait(d), Do(fn))
}

// Every calls fn every interval until fn returns false or the handle is
// cancelled. The first call happens one interval from now.
func (s *Scheduler) Every(interval time.Duration, fn func() bool) *Handle {
	return s.Run(Repeat(interval, fn))
}

// Advance resumes every pending task at the clock's current time. Tasks
// started while advancing are resumed in the same pass.
func (s *Scheduler) Advance() {
	for i := 0; i < len(s.tasks); i++ {
		s.resume(s.tasks[i])
	}
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.h.Active() {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = kept
}

// Pending returns the number of tasks that will run further steps.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if t.h.Active() {
			n++
		}
	}
	return n
}

func (s *Scheduler) resume(t *task) {
	now := s.clock.now
	for t.h.Active() {
		if t.idx >= len(t.steps) {
			t.h.done = true
			return
		}
		st := t.steps[t.idx]
		switch st.kind {
		case stepDo:
			st.fn()
			t.idx++
		case stepWait:
			if now < t.mark+st.d {
				return
			}
			t.mark += st.d
			t.idx++
		case stepUntil:
			if !st.cond() {
				return
			}
			t.mark = now
			t.idx++
		case stepRepeat:
			if now < t.mark+st.d {
				return
			}
			t.mark += st.d
			if !st.repeat() {
				t.idx++
			}
		}
	}
}

// Group collects the handles started on behalf of one owner so they can be
// cancelled together.
type Group struct {
	handles []*Handle
}

// Add records h and returns it.
func (g *Group) Add(h *Handle) *Handle {
	kept := g.handles[:0]
	for _, old := range g.handles {
		if old.Active() {
			kept = append(kept, old)
		}
	}
	g.handles = append(kept, h)
	return h
}

// CancelAll cancels every recorded handle.
func (g *Group) CancelAll() {
	for _, h := range g.handles {
		h.Cancel()
	}
	g.handles = nil
}

// Release is CancelAll.
func (g *Group) Release() { g.CancelAll() }
