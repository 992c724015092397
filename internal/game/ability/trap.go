package ability

import (
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sched"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// CueAbility is toggled on the owner during a drop wind-up.
const CueAbility = "ability"

// Volley is a claymore-style trap. Once triggered it fires Darts darts per
// volley along its heading, one volley every 1/UsesPerSecond, and is
// destroyed after ShootDuration.
//
// It is not safe for concurrent use; the caller must serialise access.
type Volley struct {
	Def     *VolleyDef
	Pos     geom.Vec
	Heading geom.Vec

	ctx   *sim.Context
	owner *entity.Actor
	phase Phase
	fired int

	life      entity.Lifetime
	destroyed event.Topic[*Volley]
}

// SpawnVolley places def at pos facing heading. An untriggered volley fires
// on its own when its lifetime ends.
//
// Precondition: ctx, def and owner must be non-nil.
func SpawnVolley(ctx *sim.Context, def *VolleyDef, owner Owner, pos, heading geom.Vec) *Volley {
	if ctx == nil || def == nil || owner == nil {
		panic("ability.SpawnVolley: ctx, def and owner must not be nil")
	}
	v := &Volley{
		Def:     def,
		Pos:     pos,
		Heading: heading.Normalize(),
		ctx:     ctx,
		owner:   owner.Actor(),
	}
	v.life.Own(ctx.Sched.After(def.Lifetime, func() { v.Trigger() }))
	if p, ok := owner.(Presser); ok && def.RemoteTrigger {
		v.life.Own(p.AbilityPressed().Subscribe(func(struct{}) { v.Trigger() }))
	}
	v.owner.Own(v)
	return v
}

// Phase returns the lifecycle phase.
func (v *Volley) Phase() Phase { return v.phase }

// Position returns the trap position.
func (v *Volley) Position() geom.Vec { return v.Pos }

// Fired returns the number of volleys fired so far.
func (v *Volley) Fired() int { return v.fired }

// Destroyed publishes once when the trap is destroyed.
func (v *Volley) Destroyed() *event.Topic[*Volley] { return &v.destroyed }

// Trigger starts firing. Triggering a volley that is not armed is a no-op
// returning false.
func (v *Volley) Trigger() bool {
	if v.phase != Armed {
		return false
	}
	v.phase = Triggered
	v.fire()
	v.life.Own(v.ctx.Sched.Every(v.Def.Interval(), func() bool {
		v.fire()
		return v.phase == Triggered
	}))
	v.life.Own(v.ctx.Sched.After(v.Def.ShootDuration, v.Destroy))
	return true
}

func (v *Volley) fire() {
	v.fired++
	if v.Def.Cue != "" {
		v.ctx.Cues.Play(v.Def.Cue, v.Pos)
	}
	for i := 0; i < v.Def.Darts; i++ {
		d := stray(v.ctx.Rand, v.Heading, v.Def.Spread)
		hit, ok := v.ctx.Sight.Raycast(v.Pos, d, v.Def.Range, v.owner)
		if ok && hostile(v.owner.Kind, hit.Actor) {
			strike(hit.Actor, v.Def.Damage, v.Def.effect)
		}
	}
}

// Destroy ends the trap and releases its button subscription. Idempotent.
func (v *Volley) Destroy() {
	if v.phase == Destroyed {
		return
	}
	v.phase = Destroyed
	v.life.End()
	v.destroyed.Publish(v)
	v.destroyed.Close()
}

// Release is Destroy.
func (v *Volley) Release() { v.Destroy() }

// Drop locks its owner for a wind-up, then drops one trap chosen at random
// from its definition at the owner's feet.
type Drop struct {
	Def *Def

	ctx    *sim.Context
	owner  Owner
	cd     Cooldown
	placed event.Topic[Trap]
}

// NewDrop builds a drop ability for owner.
//
// Precondition: def.Kind == KindDrop and def came from a Catalog.
func NewDrop(ctx *sim.Context, owner Owner, def *Def) *Drop {
	d := &Drop{Def: def, ctx: ctx, owner: owner, cd: Cooldown{Duration: def.Cooldown}}
	owner.Actor().Own(entity.ReleaseFunc(d.placed.Close))
	return d
}

// Placed publishes every trap the ability drops.
func (d *Drop) Placed() *event.Topic[Trap] { return &d.placed }

func (d *Drop) CanUse() bool {
	return d.owner.Actor().Alive() && d.cd.CanUse(d.ctx.Sched.Now())
}

func (d *Drop) Use(*entity.Actor) bool {
	if !d.CanUse() {
		return false
	}
	a := d.owner.Actor()
	d.cd.Trigger(d.ctx.Sched.Now())
	d.owner.SetCanAttack(false)
	d.owner.LockMovement(true)
	d.ctx.Cues.Toggle(a.ID, CueAbility, true)
	a.Own(d.ctx.Sched.Run(
		sched.Wait(d.Def.WindUp),
		sched.Do(func() {
			d.owner.SetCanAttack(true)
			d.owner.LockMovement(false)
			d.ctx.Cues.Toggle(a.ID, CueAbility, false)
			d.place()
		}),
	))
	return true
}

func (d *Drop) place() {
	a := d.owner.Actor()
	pick := d.Def.traps[dice.Pick(d.ctx.Rand, len(d.Def.traps))]
	var t Trap
	if pick.area != nil {
		t = SpawnArea(d.ctx, pick.area, d.owner, a.Pos, a.Facing)
	} else {
		t = SpawnVolley(d.ctx, pick.volley, d.owner, a.Pos, a.Facing)
	}
	d.placed.Publish(t)
}
