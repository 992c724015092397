package ability

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/arena/internal/game/condition"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sched"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// Unlimited is the spare magazine count of a weapon that never runs dry.
const Unlimited = -1

// CueReloading is toggled on the owner while a reload runs.
const CueReloading = "reloading"

// Magazine tracks loaded rounds and spare magazines for one weapon instance.
// Invariant: 0 <= Loaded <= Capacity; Spare >= 0 or Spare == Unlimited.
type Magazine struct {
	// WeaponID identifies the weapon this magazine belongs to.
	WeaponID string
	// Loaded is the number of rounds currently available.
	Loaded int
	// Capacity is the maximum number of rounds the magazine can hold.
	Capacity int
	// Spare is the number of full magazines left for reloading.
	Spare int
}

// NewMagazine returns a fully loaded Magazine for the given weaponID.
//
// Precondition:  capacity > 0 (panics otherwise).
// Postcondition: Loaded == Capacity == capacity.
func NewMagazine(weaponID string, capacity, spare int) *Magazine {
	if capacity <= 0 {
		panic(fmt.Sprintf("ability: NewMagazine: capacity must be > 0, got %d", capacity))
	}
	return &Magazine{
		WeaponID: weaponID,
		Loaded:   capacity,
		Capacity: capacity,
		Spare:    spare,
	}
}

// IsEmpty returns true when Loaded <= 0.
func (m *Magazine) IsEmpty() bool {
	return m.Loaded <= 0
}

// CanReload reports whether Reload would change anything.
func (m *Magazine) CanReload() bool {
	return m.Loaded < m.Capacity && m.Spare != 0
}

// Consume removes n rounds from the magazine.
//
// Precondition:  n > 0 (panics if n <= 0).
// Postcondition: on success Loaded decreases by n; returns error if Loaded < n.
func (m *Magazine) Consume(n int) error {
	if n <= 0 {
		panic(fmt.Sprintf("ability: Magazine.Consume: n must be > 0, got %d", n))
	}
	if m.Loaded < n {
		return errors.New("ability: Magazine.Consume: insufficient rounds loaded")
	}
	m.Loaded -= n
	return nil
}

// Reload swaps in a spare magazine. Rounds left in the old one are lost.
//
// Postcondition: on true, Loaded == Capacity and one spare was used.
func (m *Magazine) Reload() bool {
	if !m.CanReload() {
		return false
	}
	if m.Spare != Unlimited {
		m.Spare--
	}
	m.Loaded = m.Capacity
	return true
}

// AddMagazines adds n spare magazines. No-op for unlimited magazines.
func (m *Magazine) AddMagazines(n int) {
	if m.Spare != Unlimited && n > 0 {
		m.Spare += n
	}
}

// Weapon is a hitscan ranged weapon: one shot per fire interval while held,
// limited by its magazine, with a timed reload.
//
// It is not safe for concurrent use; the caller must serialise access.
type Weapon struct {
	Def *WeaponDef

	ctx        *sim.Context
	owner      Owner
	mag        *Magazine
	startSpare int
	fire       Cooldown

	holding bool
	hold    *sched.Handle
	reload  *sched.Handle
	tasks   sched.Group

	ammo event.Topic[Magazine]
}

// NewWeapon builds a loaded weapon for owner. The weapon's tasks and
// subscribers are released when the owner is destroyed.
//
// Precondition: ctx, owner and def must be non-nil; def came from a Catalog.
func NewWeapon(ctx *sim.Context, owner Owner, def *WeaponDef) *Weapon {
	if ctx == nil || owner == nil || def == nil {
		panic("ability.NewWeapon: ctx, owner and def must not be nil")
	}
	w := &Weapon{
		Def:        def,
		ctx:        ctx,
		owner:      owner,
		mag:        NewMagazine(def.ID, def.Magazine, def.Magazines),
		startSpare: def.Magazines,
		fire:       Cooldown{Duration: def.Interval()},
	}
	owner.Actor().Own(w)
	return w
}

// Magazine returns a copy of the magazine state.
func (w *Weapon) Magazine() Magazine { return *w.mag }

// AmmoChanged publishes the magazine after every shot, reload and refill.
func (w *Weapon) AmmoChanged() *event.Topic[Magazine] { return &w.ammo }

// Reloading reports whether a reload is in progress.
func (w *Weapon) Reloading() bool { return w.reload.Active() }

// Holding reports whether the trigger is held.
func (w *Weapon) Holding() bool { return w.holding }

// CanUse reports whether a shot can be fired now.
func (w *Weapon) CanUse() bool {
	a := w.owner.Actor()
	return a.Alive() && w.owner.CanAttack() && !w.Reloading() &&
		!w.mag.IsEmpty() && w.fire.CanUse(w.ctx.Sched.Now())
}

// Use fires one shot toward target, or along the owner's facing when target
// is nil.
func (w *Weapon) Use(target *entity.Actor) bool {
	if !w.CanUse() {
		return false
	}
	a := w.owner.Actor()
	if target != nil {
		if to := target.Pos.Sub(a.Pos); !to.IsZero() {
			a.Facing = to.Normalize()
		}
	}
	w.fire.Trigger(w.ctx.Sched.Now())
	_ = w.mag.Consume(1)
	w.shoot(a, a.Facing)
	if w.Def.Cue != "" {
		w.ctx.Cues.Play(w.Def.Cue, a.Pos)
	}
	w.ammo.Publish(*w.mag)
	return true
}

func (w *Weapon) shoot(a *entity.Actor, dir geom.Vec) {
	for i := 0; i < w.Def.Pellets; i++ {
		d := stray(w.ctx.Rand, dir, w.Def.Spread)
		hit, ok := w.ctx.Sight.Raycast(a.Pos, d, w.Def.Range, a)
		if !ok || !hostile(a.Kind, hit.Actor) {
			continue
		}
		strike(hit.Actor, w.ctx.Roller.Roll(w.Def.damage), w.Def.effect)
	}
}

// Hold presses or releases the trigger. While held the weapon fires at its
// own rate and reloads itself when empty.
func (w *Weapon) Hold(on bool) {
	w.holding = on
	if !on || w.hold.Active() {
		return
	}
	w.hold = w.tasks.Add(w.ctx.Sched.Run(sched.Until(func() bool {
		if !w.holding {
			return true
		}
		if w.mag.IsEmpty() {
			w.Reload()
		} else {
			w.Use(nil)
		}
		return false
	})))
}

// Reload starts a timed reload. It is a no-op returning false while already
// reloading, with a full magazine, or with no spare magazines.
func (w *Weapon) Reload() bool {
	if w.Reloading() || !w.mag.CanReload() || !w.owner.Actor().Alive() {
		return false
	}
	id := w.owner.Actor().ID
	w.reload = w.tasks.Add(w.ctx.Sched.Run(
		sched.Do(func() { w.ctx.Cues.Toggle(id, CueReloading, true) }),
		sched.Wait(w.Def.ReloadTime),
		sched.Do(func() {
			w.ctx.Cues.Toggle(id, CueReloading, false)
			w.mag.Reload()
			w.ammo.Publish(*w.mag)
		}),
	))
	return true
}

// Reset releases the trigger and abandons any reload in progress, as when
// the weapon is put away.
func (w *Weapon) Reset() {
	w.holding = false
	if w.Reloading() {
		w.ctx.Cues.Toggle(w.owner.Actor().ID, CueReloading, false)
	}
	w.tasks.CancelAll()
}

// Refill restores the magazine and the starting spare count.
func (w *Weapon) Refill() {
	w.Reset()
	w.mag.Loaded = w.mag.Capacity
	w.mag.Spare = w.startSpare
	w.ammo.Publish(*w.mag)
}

// AddMagazines adds n spare magazines and publishes the result.
func (w *Weapon) AddMagazines(n int) {
	w.mag.AddMagazines(n)
	w.ammo.Publish(*w.mag)
}

// Release cancels every task and drops every ammo subscriber.
func (w *Weapon) Release() {
	w.holding = false
	w.tasks.CancelAll()
	w.ammo.Close()
}

// hostile reports whether target is a live, revealed opponent of side.
func hostile(side entity.Kind, target *entity.Actor) bool {
	return target != nil && target.Kind != side && target.Targetable()
}

// strike deals damage to target and applies bp when non-nil.
func strike(target *entity.Actor, damage int, bp *condition.Blueprint) {
	if damage > 0 {
		target.Stats.ModifyHealth(-damage)
	}
	if bp != nil {
		target.Effects.Apply(bp)
	}
}

// stray rotates dir by a uniformly random angle inside a cone of spread
// degrees.
func stray(src dice.Source, dir geom.Vec, spread float64) geom.Vec {
	if spread <= 0 {
		return dir
	}
	off := (dice.Percent(src)/100 - 0.5) * spread * math.Pi / 180
	return dir.Rotate(off)
}
