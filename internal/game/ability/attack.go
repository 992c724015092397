package ability

import (
	"math"
	"time"

	"github.com/cory-johannsen/arena/internal/game/ai"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sched"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// CueAttacking is toggled on the owner while a punch winds up.
const CueAttacking = "attacking"

// Attack is an enemy attack. Its Kind picks the timed sequence Use starts.
// Punch and grab read the owner's current target at the moment damage lands,
// so a target that died or walked away during the wind-up is spared. A charge
// dashes toward the owner's charge target, the position where the target was
// last seen, wherever the target has gone since.
type Attack struct {
	Def *Def

	ctx      *sim.Context
	owner    Owner
	targeter Targeter
	cd       Cooldown
	tasks    sched.Group
	running  *sched.Handle
}

// NewAttack builds an enemy attack for owner. When owner implements
// Targeter its current target and damage modifier are used.
//
// Precondition: def.Kind is one of KindPunch, KindGrab, KindCharge, KindSong.
func NewAttack(ctx *sim.Context, owner Owner, def *Def) *Attack {
	at := &Attack{Def: def, ctx: ctx, owner: owner, cd: Cooldown{Duration: def.Cooldown}}
	at.targeter, _ = owner.(Targeter)
	owner.Actor().Own(&at.tasks)
	return at
}

// CanUse reports whether the owner is alive, allowed to attack and off
// cooldown.
func (at *Attack) CanUse() bool {
	return at.owner.Actor().Alive() && at.owner.CanAttack() && at.cd.CanUse(at.ctx.Sched.Now())
}

// Busy reports whether an attack sequence is still running.
func (at *Attack) Busy() bool {
	return at.running != nil && at.running.Active()
}

func (at *Attack) Use(target *entity.Actor) bool {
	if !at.CanUse() {
		return false
	}
	at.cd.Trigger(at.ctx.Sched.Now())
	at.running = at.tasks.Add(at.ctx.Sched.Run(at.sequence(target)...))
	return true
}

func (at *Attack) sequence(initial *entity.Actor) []sched.Step {
	self := at.owner.Actor()
	attr := self.Stats.Attr
	wind := attr.AttackInterval()
	switch at.Def.Kind {
	case KindPunch:
		return []sched.Step{
			sched.Do(func() {
				at.owner.LockMovement(true)
				at.ctx.Cues.Toggle(self.ID, CueAttacking, true)
			}),
			sched.Wait(time.Duration(float64(at.Def.Cooldown) / at.Def.AnimSpeed)),
			sched.Do(func() {
				at.hit(at.aim(initial), attr.AttackDamage)
				at.owner.LockMovement(false)
				at.ctx.Cues.Toggle(self.ID, CueAttacking, false)
			}),
		}
	case KindGrab:
		return []sched.Step{
			sched.Do(func() { at.owner.SetCanAttack(false) }),
			sched.Wait(wind),
			sched.Do(func() {
				bonus := 0
				if at.targeter != nil {
					bonus = int(at.targeter.Modifier())
				}
				at.hit(at.aim(initial), attr.AttackDamage+bonus)
				if at.targeter != nil {
					at.targeter.AddModifier(math.Pow(attr.DamageModifier, attr.Power))
				}
				at.owner.SetCanAttack(true)
			}),
		}
	case KindCharge:
		return []sched.Step{
			sched.Do(func() { at.owner.SetCanAttack(false) }),
			sched.Wait(wind),
			sched.Do(func() {
				dest, ok := at.chargeTarget(initial)
				if !ok {
					return
				}
				dash := dest.Sub(self.Pos).ClampLen(1).Scale(attr.ChargeSpeed)
				if !dash.IsZero() {
					self.Facing = dash.Normalize()
				}
				self.Nav.Push(dash, wind)
			}),
			sched.Wait(wind),
			sched.Do(func() { at.owner.SetCanAttack(true) }),
		}
	case KindSong:
		return []sched.Step{
			sched.Do(func() {
				if at.Def.Cue != "" {
					at.ctx.Cues.Play(at.Def.Cue, self.Pos)
				}
				for _, ally := range at.ctx.OverlapKind(self.Pos, at.Def.Radius, self.Kind) {
					ally.Effects.Apply(at.Def.effect)
				}
			}),
		}
	}
	panic("ability.Attack: kind " + string(at.Def.Kind) + " is not an attack")
}

// aim prefers the owner's live target over the target Use was called with.
func (at *Attack) aim(initial *entity.Actor) *entity.Actor {
	if at.targeter != nil {
		if t := at.targeter.Target(); t != nil {
			return t
		}
	}
	return initial
}

// chargeTarget is the owner's recorded charge target, or the position of the
// target Use was called with when the owner records none.
func (at *Attack) chargeTarget(initial *entity.Actor) (geom.Vec, bool) {
	if at.targeter != nil {
		return at.targeter.ChargeTarget(), true
	}
	if initial == nil {
		return geom.Vec{}, false
	}
	return initial.Pos, true
}

func (at *Attack) hit(t *entity.Actor, damage int) {
	self := at.owner.Actor()
	if t == nil || !t.Targetable() || !self.Alive() {
		return
	}
	if ai.InRange(self.DistSq(t), self.Stats.Attr.AttackRange) {
		t.Stats.ModifyHealth(-damage)
	}
}
