package ability

import (
	"time"

	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sched"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// Phase is the lifecycle position of a thrown or dropped object.
type Phase int

const (
	// Armed objects wait for a fuse, contact, remote trigger or expiry.
	Armed Phase = iota
	// Triggered objects are counting down their impact delay (volleys: firing).
	Triggered
	// Overtime objects have impacted and tick their over-time effect.
	Overtime
	// Destroyed objects never act again.
	Destroyed
)

func (p Phase) String() string {
	switch p {
	case Armed:
		return "armed"
	case Triggered:
		return "triggered"
	case Overtime:
		return "overtime"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Cue names fired by area impacts with Shake or Pause set.
const (
	CueCameraShake = "camera_shake"
	CueTimePause   = "time_pause"
)

// Trap is a dropped object the owner may detonate remotely.
type Trap interface {
	Trigger() bool
	Destroy()
	Phase() Phase
	Position() geom.Vec
}

// Area is a grenade-style object: it waits armed, impacts once within its
// impact radius, then optionally ticks an over-time effect within its dot
// radius until its lifetime ends.
//
// Invariant: every opponent slowed by the area has its movement speed
// restored when it leaves the dot radius or when the area is destroyed.
//
// It is not safe for concurrent use; the caller must serialise access.
type Area struct {
	Def     *AreaDef
	Pos     geom.Vec
	Heading geom.Vec

	ctx     *sim.Context
	side    entity.Kind
	phase   Phase
	expired bool
	stuck   bool
	movedAt time.Duration
	slowed  []*entity.Actor

	life      entity.Lifetime
	destroyed event.Topic[*Area]
}

// SpawnArea places def at pos on owner's side of the match, heading along
// heading when the area moves by itself. The area is destroyed with its
// owner.
//
// Precondition: ctx, def and owner must be non-nil.
func SpawnArea(ctx *sim.Context, def *AreaDef, owner Owner, pos, heading geom.Vec) *Area {
	if ctx == nil || def == nil || owner == nil {
		panic("ability.SpawnArea: ctx, def and owner must not be nil")
	}
	a := &Area{
		Def:     def,
		Pos:     pos,
		Heading: heading.Normalize(),
		ctx:     ctx,
		side:    owner.Actor().Kind,
		movedAt: ctx.Sched.Now(),
	}
	s := ctx.Sched
	a.life.Own(s.After(def.Lifetime, a.expire))
	if def.Fuse > 0 {
		a.life.Own(s.After(def.Fuse, func() { a.Trigger() }))
	}
	if def.Speed > 0 || def.TriggerRadius > 0 {
		a.life.Own(s.Run(sched.Until(a.armed)))
	}
	if p, ok := owner.(Presser); ok && def.RemoteTrigger {
		a.life.Own(p.AbilityPressed().Subscribe(func(struct{}) { a.Trigger() }))
	}
	owner.Actor().Own(a)
	return a
}

// Phase returns the lifecycle phase.
func (a *Area) Phase() Phase { return a.phase }

// Position returns the current position.
func (a *Area) Position() geom.Vec { return a.Pos }

// Slowed returns the opponents currently slowed by the area.
func (a *Area) Slowed() []*entity.Actor { return append([]*entity.Actor(nil), a.slowed...) }

// Destroyed publishes once when the area is destroyed.
func (a *Area) Destroyed() *event.Topic[*Area] { return &a.destroyed }

// armed moves the area and checks contact once per scheduler pass. It
// reports true, ending its task, once the area leaves the Armed phase.
func (a *Area) armed() bool {
	if a.phase != Armed {
		return true
	}
	now := a.ctx.Sched.Now()
	dt := now - a.movedAt
	a.movedAt = now
	if a.Def.Speed > 0 && !a.stuck && dt > 0 && !a.Heading.IsZero() {
		step := a.Def.Speed * dt.Seconds()
		hit, ok := a.ctx.Sight.Raycast(a.Pos, a.Heading, step, nil)
		if ok && hit.Actor == nil {
			a.Pos = hit.Point
			a.stuck = true
		} else {
			a.Pos = a.Pos.Add(a.Heading.Scale(step))
		}
	}
	if a.Def.TriggerRadius > 0 && len(a.ctx.OverlapKind(a.Pos, a.Def.TriggerRadius, a.side.Opponent())) > 0 {
		a.Trigger()
		return true
	}
	return false
}

// Trigger starts the impact sequence. Triggering an area that is not armed
// is a no-op returning false.
func (a *Area) Trigger() bool {
	if a.phase != Armed {
		return false
	}
	a.phase = Triggered
	if a.Def.ImpactCue != "" {
		a.ctx.Cues.Play(a.Def.ImpactCue, a.Pos)
	}
	if a.Def.ImpactDelay > 0 {
		a.life.Own(a.ctx.Sched.After(a.Def.ImpactDelay, a.impact))
	} else {
		a.impact()
	}
	return true
}

func (a *Area) impact() {
	if a.phase != Triggered {
		return
	}
	if a.Def.Shake {
		a.ctx.Cues.Play(CueCameraShake, a.Pos)
	}
	if a.Def.Pause {
		a.ctx.Cues.Play(CueTimePause, a.Pos)
	}
	if a.Def.ImpactRadius > 0 {
		for _, t := range a.ctx.OverlapKind(a.Pos, a.Def.ImpactRadius, a.side.Opponent()) {
			strike(t, a.Def.ImpactDamage, a.Def.impactEffect)
		}
	}
	if !a.Def.HasOvertime() || a.expired {
		a.Destroy()
		return
	}
	a.phase = Overtime
	if a.Def.OvertimeCue != "" {
		a.ctx.Cues.Play(a.Def.OvertimeCue, a.Pos)
	}
	a.life.Own(a.ctx.Sched.Every(a.Def.TickInterval, a.tick))
}

func (a *Area) tick() bool {
	if a.phase != Overtime {
		return false
	}
	inside := a.ctx.OverlapKind(a.Pos, a.Def.DotRadius, a.side.Opponent())
	for _, t := range inside {
		strike(t, a.Def.DotDamage, a.Def.dotEffect)
		if a.Def.SlowFactor > 0 && !t.IsDestroyed() {
			t.Stats.ModifyMovementSpeed(t.Stats.BaseMovementSpeed() * a.Def.SlowFactor)
			a.track(t)
		}
	}
	kept := a.slowed[:0]
	for _, t := range a.slowed {
		if contains(inside, t) {
			kept = append(kept, t)
			continue
		}
		unslow(t)
	}
	a.slowed = kept
	return true
}

func (a *Area) track(t *entity.Actor) {
	if !contains(a.slowed, t) {
		a.slowed = append(a.slowed, t)
	}
}

func (a *Area) expire() {
	a.expired = true
	switch a.phase {
	case Armed:
		if a.Def.DetonateOnExpiry {
			a.Trigger()
			return
		}
		a.Destroy()
	case Overtime:
		a.Destroy()
	}
}

// Destroy ends the area, restoring the speed of every opponent it slowed.
// Idempotent.
func (a *Area) Destroy() {
	if a.phase == Destroyed {
		return
	}
	a.phase = Destroyed
	for _, t := range a.slowed {
		unslow(t)
	}
	a.slowed = nil
	a.life.End()
	a.destroyed.Publish(a)
	a.destroyed.Close()
}

// Release is Destroy; it lets an owner's lifetime own the area.
func (a *Area) Release() { a.Destroy() }

func unslow(t *entity.Actor) {
	if !t.IsDestroyed() {
		t.Stats.ResetMovementSpeed()
	}
}

func contains(list []*entity.Actor, x *entity.Actor) bool {
	for _, a := range list {
		if a == x {
			return true
		}
	}
	return false
}
