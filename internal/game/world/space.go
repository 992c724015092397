package world

import (
	"math"
	"time"

	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/geom"
)

// arriveDist is how close an agent must get to its destination to count as
// arrived.
const arriveDist = 0.1

// Space is the reference physics for a layout. It answers overlap and
// line-of-sight queries against the actors of its rosters and moves every
// agent it created on Step.
//
// It is not safe for concurrent use; the caller must serialise access.
type Space struct {
	layout  *Layout
	rosters []entity.Roster
	agents  []*Agent
}

// NewSpace creates a Space over layout observing the given rosters.
//
// Precondition: layout must be non-nil.
func NewSpace(layout *Layout, rosters ...entity.Roster) *Space {
	if layout == nil {
		panic("world.NewSpace: layout must not be nil")
	}
	return &Space{layout: layout, rosters: rosters}
}

// Layout returns the arena layout.
func (s *Space) Layout() *Layout { return s.layout }

func (s *Space) bodies(yield func(*entity.Actor) bool) {
	for _, r := range s.rosters {
		for _, a := range r.All() {
			if a.IsDestroyed() {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

// Overlap implements entity.SpatialIndex.
func (s *Space) Overlap(center geom.Vec, radius float64) []*entity.Actor {
	var out []*entity.Actor
	for a := range s.bodies {
		reach := radius + a.Radius
		if a.Pos.DistSq(center) <= reach*reach {
			out = append(out, a)
		}
	}
	return out
}

// Raycast implements entity.LineOfSight. Dead and hidden actors do not block.
func (s *Space) Raycast(origin, dir geom.Vec, maxDist float64, ignore *entity.Actor) (entity.Hit, bool) {
	d := dir.Normalize()
	if d.IsZero() || maxDist <= 0 {
		return entity.Hit{}, false
	}
	best := math.Inf(1)
	var hit entity.Hit
	for a := range s.bodies {
		if a == ignore || !a.Targetable() {
			continue
		}
		if t, ok := rayCircle(origin, d, a.Pos, a.Radius); ok && t <= maxDist && t < best {
			best = t
			hit = entity.Hit{Actor: a, Point: origin.Add(d.Scale(t)), Dist: t}
		}
	}
	for _, o := range s.layout.Obstacles {
		if t, ok := rayRect(origin, d, o); ok && t <= maxDist && t < best {
			best = t
			hit = entity.Hit{Point: origin.Add(d.Scale(t)), Dist: t}
		}
	}
	return hit, !math.IsInf(best, 1)
}

// rayCircle returns the distance along the unit ray to the first
// intersection with the circle.
func rayCircle(origin, d, center geom.Vec, r float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(d)
	c := oc.LenSq() - r*r
	if c <= 0 {
		return 0, true
	}
	disc := b*b - c
	if b > 0 || disc < 0 {
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}

// rayRect is the slab test against an obstacle.
func rayRect(origin, d geom.Vec, r Rect) (float64, bool) {
	tmin, tmax := 0.0, math.Inf(1)
	for _, axis := range [2]struct{ o, d, lo, hi float64 }{
		{origin.X, d.X, r.X, r.X + r.Width},
		{origin.Y, d.Y, r.Y, r.Y + r.Height},
	} {
		if axis.d == 0 {
			if axis.o < axis.lo || axis.o > axis.hi {
				return 0, false
			}
			continue
		}
		t1 := (axis.lo - axis.o) / axis.d
		t2 := (axis.hi - axis.o) / axis.d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

// Agent implements entity.Navigation: every actor built by the match gets
// an agent in this space.
func (s *Space) Agent(a *entity.Actor) entity.Navigator {
	ag := &Agent{actor: a, space: s}
	s.agents = append(s.agents, ag)
	return ag
}

// Step advances every agent by dt and drops agents whose actor was destroyed.
func (s *Space) Step(dt time.Duration) {
	sec := dt.Seconds()
	kept := s.agents[:0]
	for _, ag := range s.agents {
		if ag.actor.IsDestroyed() {
			continue
		}
		ag.step(sec)
		kept = append(kept, ag)
	}
	for i := len(kept); i < len(s.agents); i++ {
		s.agents[i] = nil
	}
	s.agents = kept
}

// Agent moves one actor in a straight line toward its destination.
type Agent struct {
	actor   *entity.Actor
	space   *Space
	dest    geom.Vec
	hasDest bool
	stopped bool
	speed   float64

	push     geom.Vec
	pushLeft float64
}

func (g *Agent) SetDestination(dst geom.Vec) {
	g.dest = g.space.layout.Bounds.Clamp(dst)
	g.hasDest = true
}

func (g *Agent) Stop()              { g.stopped = true }
func (g *Agent) Resume()            { g.stopped = false }
func (g *Agent) Stopped() bool      { return g.stopped }
func (g *Agent) SetSpeed(v float64) { g.speed = v }

// Destination returns the current destination, if any.
func (g *Agent) Destination() (geom.Vec, bool) { return g.dest, g.hasDest }

func (g *Agent) Arrived() bool {
	return !g.hasDest || g.actor.Pos.DistSq(g.dest) <= arriveDist*arriveDist
}

func (g *Agent) Warp(pos geom.Vec) {
	g.actor.Pos = g.space.layout.Bounds.Clamp(pos)
	g.hasDest = false
	g.push, g.pushLeft = geom.Vec{}, 0
}

func (g *Agent) Push(velocity geom.Vec, over time.Duration) {
	g.push = velocity
	g.pushLeft = over.Seconds()
}

func (g *Agent) step(sec float64) {
	a := g.actor
	if g.pushLeft > 0 {
		use := math.Min(sec, g.pushLeft)
		a.Pos = g.space.layout.Bounds.Clamp(a.Pos.Add(g.push.Scale(use)))
		g.pushLeft -= use
		return
	}
	if g.stopped || !g.hasDest || !a.Alive() || g.Arrived() {
		return
	}
	to := g.dest.Sub(a.Pos)
	stepLen := g.speed * sec
	if to.LenSq() <= stepLen*stepLen {
		a.Pos = g.dest
	} else {
		a.Pos = a.Pos.Add(to.Normalize().Scale(stepLen))
	}
	a.Facing = to.Normalize()
}
