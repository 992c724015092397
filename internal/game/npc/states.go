package npc

import (
	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/ai"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// Archetypes returns a registry holding the built-in state graphs:
//
//	berserker   Wandering -> Rampage -> Charge -> Rampage
//	cricket     Wandering <-> Flee, singing every update
//	frogman     Chase <-> Strike with a punch
//	frogrunner  Chase <-> Strike with a grab
//
// Each factory returns nil when the enemy lacks the attack its graph needs,
// which makes Manager.Spawn fail.
func Archetypes() *ai.Registry[*Enemy] {
	reg := ai.NewRegistry[*Enemy]()
	for name, f := range map[string]ai.Factory[*Enemy]{
		"berserker":  needs(ability.KindCharge, func(e *Enemy) ai.State { return &wandering{e: e} }),
		"cricket":    needs(ability.KindSong, func(e *Enemy) ai.State { return newRoaming(e) }),
		"frogman":    needs(ability.KindPunch, func(e *Enemy) ai.State { return newChase(e, ability.KindPunch) }),
		"frogrunner": needs(ability.KindGrab, func(e *Enemy) ai.State { return newChase(e, ability.KindGrab) }),
	} {
		if err := reg.Register(name, f); err != nil {
			panic("npc.Archetypes: " + err.Error())
		}
	}
	return reg
}

func needs(kind ability.Kind, f ai.Factory[*Enemy]) ai.Factory[*Enemy] {
	return func(e *Enemy) ai.State {
		if _, ok := e.Attack(kind); !ok {
			return nil
		}
		return f(e)
	}
}

// moving toggles the running cue and releases the navigator.
func moving(e *Enemy, on bool) {
	e.ctx.Cues.Toggle(e.actor.ID, CueRunning, on)
	if on {
		e.LockMovement(false)
	}
}

// live returns the current target, re-acquiring one if it is gone.
func live(e *Enemy) *entity.Actor {
	if t := e.target; t != nil && t.Targetable() {
		e.distance = e.actor.DistSq(t)
		return t
	}
	return e.Retarget()
}

// Berserker.

type wandering struct{ e *Enemy }

func (s *wandering) Name() string { return "wandering" }

func (s *wandering) Enter() {
	s.e.Retarget()
	moving(s.e, true)
}

func (s *wandering) Execute() {
	e := s.e
	if e.actor.Stats.Health() < e.actor.Stats.MaxHealth() {
		e.change(&rampage{e: e})
		return
	}
	if t := e.Retarget(); t != nil {
		e.actor.Nav.SetDestination(t.Pos)
	}
}

// Exit switches to rampage speed; a berserker never wanders again.
func (s *wandering) Exit() {
	if v := s.e.Template.RampageSpeed; v > 0 && s.e.actor.Alive() {
		s.e.actor.Stats.ModifyMovementSpeed(v)
	}
}

type rampage struct{ e *Enemy }

func (s *rampage) Name() string { return "rampage" }

func (s *rampage) Enter() {
	s.e.Retarget()
	moving(s.e, true)
}

func (s *rampage) Execute() {
	e := s.e
	t := live(e)
	if t == nil {
		return
	}
	dash, _ := e.Attack(ability.KindCharge)
	if seen, ok := ai.CanSee(e.ctx.Sight, e.actor, e.actor.Stats.Attr.AttackRange, entity.Player); ok && dash.CanUse() {
		e.target = seen
		e.chargeTarget = seen.Pos
		e.change(&charge{e: e, dash: dash})
		return
	}
	e.actor.Nav.SetDestination(t.Pos)
}

func (s *rampage) Exit() { moving(s.e, false) }

type charge struct {
	e    *Enemy
	dash *ability.Attack
}

func (s *charge) Name() string { return "charge" }

func (s *charge) Enter() {
	s.e.LockMovement(true)
	s.e.charged = false
}

func (s *charge) Execute() {
	e := s.e
	t := e.target
	if t == nil || !t.Targetable() {
		e.change(&rampage{e: e})
		return
	}
	switch {
	case !e.charged:
		s.dash.Use(t)
		e.charged = true
	case e.canAttack:
		e.change(&rampage{e: e})
	default:
		e.Face(t.Pos)
	}
}

func (s *charge) Exit() { s.e.LockMovement(false) }

// Cricket.

type roaming struct {
	e    *Enemy
	song *ability.Attack
}

func newRoaming(e *Enemy) *roaming {
	song, _ := e.Attack(ability.KindSong)
	return &roaming{e: e, song: song}
}

func (s *roaming) Name() string { return "wandering" }

func (s *roaming) Enter() {
	s.e.Retarget()
	moving(s.e, true)
}

func (s *roaming) Execute() {
	e := s.e
	t := e.Retarget()
	if t == nil {
		return
	}
	if ai.InRange(e.distance, e.actor.Stats.Attr.AttackRange) {
		e.change(&flee{e: e, song: s.song})
		return
	}
	s.song.Use(t)
	e.actor.Nav.SetDestination(t.Pos)
}

func (s *roaming) Exit() {}

type flee struct {
	e    *Enemy
	song *ability.Attack
}

func (s *flee) Name() string { return "flee" }

func (s *flee) Enter() {
	moving(s.e, true)
	s.run()
}

func (s *flee) Execute() {
	e := s.e
	if !ai.InRange(e.distance, e.actor.Stats.Attr.AttackRange) {
		e.change(&roaming{e: e, song: s.song})
		return
	}
	s.song.Use(e.target)
	s.run()
}

// run heads directly away from the closest player.
func (s *flee) run() {
	e := s.e
	t := e.Retarget()
	if t == nil {
		return
	}
	away := e.actor.Pos.Sub(t.Pos)
	e.actor.Nav.SetDestination(e.actor.Pos.Add(away))
}

func (s *flee) Exit() {}

// Frogman and frogrunner.

type chase struct {
	e    *Enemy
	kind ability.Kind
}

func newChase(e *Enemy, kind ability.Kind) *chase { return &chase{e: e, kind: kind} }

func (s *chase) Name() string { return "chase" }

func (s *chase) Enter() { moving(s.e, true) }

func (s *chase) Execute() {
	e := s.e
	t := e.Retarget()
	if t == nil {
		return
	}
	if ai.InRange(e.distance, e.actor.Stats.Attr.AttackRange) {
		atk, _ := e.Attack(s.kind)
		e.change(&strike{e: e, kind: s.kind, atk: atk})
		return
	}
	e.actor.Nav.SetDestination(t.Pos)
}

func (s *chase) Exit() { moving(s.e, false) }

type strike struct {
	e    *Enemy
	kind ability.Kind
	atk  *ability.Attack
}

func (s *strike) Name() string { return "strike" }

// Enter plants the enemy where it stands so an attack releasing the lock
// does not carry it into the target.
func (s *strike) Enter() {
	s.e.LockMovement(true)
	s.e.actor.Nav.SetDestination(s.e.actor.Pos)
}

func (s *strike) Execute() {
	e := s.e
	t := live(e)
	if t == nil {
		return
	}
	if !ai.InRange(e.distance, e.actor.Stats.Attr.AttackRange) && !s.atk.Busy() {
		e.change(newChase(e, s.kind))
		return
	}
	e.Face(t.Pos)
	if s.atk.CanUse() {
		s.atk.Use(t)
	}
}

func (s *strike) Exit() { s.e.LockMovement(false) }
