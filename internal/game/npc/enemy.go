package npc

import (
	"math"
	"time"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/ai"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// Cue names toggled on enemies.
const (
	CueRunning = "running"
	CueDead    = "dead"
)

// ContactResetWindow is how long after the last contact hit an enemy keeps
// ignoring the players it already touched.
const ContactResetWindow = 3 * time.Second

// destroyGrace is added to the death linger before the body is removed.
const destroyGrace = 100 * time.Millisecond

// Death is published once when an enemy dies.
type Death struct {
	Enemy *Enemy
	Pos   geom.Vec
	Loot  LootResult
}

// Enemy is a live enemy: an actor plus the state machine driving it and the
// blackboard its states share.
//
// It is not safe for concurrent use; the caller must serialise access.
type Enemy struct {
	Template *Template

	ctx       *sim.Context
	actor     *entity.Actor
	machine   *ai.Machine
	abilities []ability.Useable

	target       *entity.Actor
	distance     float64
	chargeTarget geom.Vec
	charged      bool
	modifier     float64
	canAttack    bool

	dead     bool
	updating bool
	dt       time.Duration

	touched    []*entity.Actor
	touchReset time.Duration

	deaths event.Topic[Death]
}

func newEnemy(ctx *sim.Context, tmpl *Template, a *entity.Actor) *Enemy {
	e := &Enemy{
		Template:  tmpl,
		ctx:       ctx,
		actor:     a,
		machine:   ai.NewMachine(a.ID, ctx.Logger),
		distance:  math.Inf(1),
		canAttack: true,
		updating:  true,
	}
	a.Own(
		a.Stats.Died().Subscribe(func(struct{}) { e.die() }),
		entity.ReleaseFunc(e.machine.Close),
		entity.ReleaseFunc(e.deaths.Close),
	)
	return e
}

// Actor returns the enemy's body.
func (e *Enemy) Actor() *entity.Actor { return e.actor }

// ID returns the actor ID.
func (e *Enemy) ID() string { return e.actor.ID }

// Machine returns the enemy's state machine.
func (e *Enemy) Machine() *ai.Machine { return e.machine }

// Abilities returns the abilities built from the template.
func (e *Enemy) Abilities() []ability.Useable { return e.abilities }

// Attack returns the first attack of kind, if the enemy has one.
func (e *Enemy) Attack(kind ability.Kind) (*ability.Attack, bool) {
	for _, u := range e.abilities {
		if at, ok := u.(*ability.Attack); ok && at.Def.Kind == kind {
			return at, true
		}
	}
	return nil, false
}

// Died publishes once when the enemy dies, before its body lingers.
func (e *Enemy) Died() *event.Topic[Death] { return &e.deaths }

func (e *Enemy) CanAttack() bool     { return e.canAttack }
func (e *Enemy) SetCanAttack(v bool) { e.canAttack = v }

// LockMovement stops or resumes the navigator.
func (e *Enemy) LockMovement(on bool) {
	if on {
		e.actor.Nav.Stop()
	} else {
		e.actor.Nav.Resume()
	}
}

func (e *Enemy) Target() *entity.Actor  { return e.target }
func (e *Enemy) Modifier() float64      { return e.modifier }
func (e *Enemy) AddModifier(v float64)  { e.modifier += v }
func (e *Enemy) ChargeTarget() geom.Vec { return e.chargeTarget }

// Distance is the squared distance to the target as of the last Retarget.
func (e *Enemy) Distance() float64 { return e.distance }

// Dead reports whether the enemy has died.
func (e *Enemy) Dead() bool { return e.dead }

// Idle reports whether the enemy has stopped updating, either because it died
// or because no player is left alive.
func (e *Enemy) Idle() bool { return !e.updating }

// Retarget selects the closest living player and records its squared
// distance. With no living player the target becomes nil and the distance
// +Inf.
func (e *Enemy) Retarget() *entity.Actor {
	e.target, e.distance = ai.Closest(e.actor.Pos, e.ctx.Players.Living())
	return e.target
}

// Face turns the enemy toward pos at its rotation speed. A rotation speed of
// zero turns instantly.
func (e *Enemy) Face(pos geom.Vec) {
	to := pos.Sub(e.actor.Pos)
	if to.IsZero() {
		return
	}
	rate := e.actor.Stats.Attr.RotationSpeed
	if rate <= 0 {
		e.actor.Facing = to.Normalize()
		return
	}
	e.actor.Facing = geom.RotateTowards(e.actor.Facing, to, rate*e.dt.Seconds())
}

// Update runs the current state once. When the enemy is dead or every player
// is dead it goes idle: the running cue is cleared, the navigator stops and
// the machine is never updated again.
func (e *Enemy) Update(dt time.Duration) {
	if !e.updating {
		return
	}
	e.dt = dt
	if e.dead || !e.actor.Alive() || len(e.ctx.Players.Living()) == 0 {
		e.ctx.Cues.Toggle(e.actor.ID, CueRunning, false)
		e.actor.Nav.Stop()
		e.updating = false
		return
	}
	e.machine.Update()
}

// Contact deals collision damage to p unless p was already hit within the
// current reset window. It reports whether damage was dealt.
func (e *Enemy) Contact(p *entity.Actor) bool {
	now := e.ctx.Sched.Now()
	if len(e.touched) > 0 && now > e.touchReset+ContactResetWindow {
		e.touched = e.touched[:0]
	}
	if !e.Template.DamageOnTouch || e.dead || p.Kind != entity.Player || !p.Targetable() || contains(e.touched, p) {
		return false
	}
	e.touched = append(e.touched, p)
	e.touchReset = now
	p.Stats.ModifyHealth(-e.actor.Stats.Attr.CollisionDamage)
	return true
}

func (e *Enemy) die() {
	if e.dead {
		return
	}
	e.dead = true
	a := e.actor
	a.Nav.Stop()
	e.ctx.Cues.Toggle(a.ID, CueRunning, false)
	e.ctx.Cues.Toggle(a.ID, CueDead, true)
	e.deaths.Publish(Death{Enemy: e, Pos: a.Pos, Loot: GenerateLoot(e.ctx.Rand, e.Template.Loot)})
	linger := e.Template.DeathLinger
	if linger == 0 {
		linger = DefaultDeathLinger
	}
	a.Own(e.ctx.Sched.After(linger+destroyGrace, a.Destroy))
}

func (e *Enemy) change(next ai.State) { e.machine.Change(next) }

func contains(list []*entity.Actor, x *entity.Actor) bool {
	for _, a := range list {
		if a == x {
			return true
		}
	}
	return false
}
