package character

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// CueDead is toggled on a character while it is dead.
const CueDead = "dead"

// Action is a discrete input a character responds to.
type Action int

const (
	Shoot Action = iota
	Reload
	ChangeWeapon
	UseAbility
	UseHeal
)

func (a Action) String() string {
	switch a {
	case Shoot:
		return "shoot"
	case Reload:
		return "reload"
	case ChangeWeapon:
		return "change_weapon"
	case UseAbility:
		return "ability"
	case UseHeal:
		return "heal"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Character is a player-controlled body with its loadout.
//
// Invariant: Current is the base or the primary weapon and never nil.
//
// It is not safe for concurrent use; the caller must serialise access.
type Character struct {
	Class *Class

	ctx     *sim.Context
	catalog *ability.Catalog
	actor   *entity.Actor

	base    *ability.Weapon
	primary *ability.Weapon
	current *ability.Weapon
	ability ability.Useable
	heal    ability.Useable

	canMove   bool
	canAttack bool
	dead      bool

	forward *event.Subscription
	ammo    event.Topic[ability.Magazine]
	pressed event.Topic[struct{}]
	deaths  event.Topic[*Character]
}

// Build creates a character of class cls named name at pos with every weapon
// and ability of the loadout built from catalog. The character is not added
// to any roster.
//
// Precondition: ctx, catalog and cls must be non-nil; cls.Validate() == nil.
// Postcondition: Returns a character wielding its base weapon, or an error
// naming the first loadout entry missing from catalog.
func Build(ctx *sim.Context, catalog *ability.Catalog, cls *Class, name string, pos geom.Vec) (*Character, error) {
	if ctx == nil || catalog == nil || cls == nil {
		panic("character.Build: ctx, catalog and class must not be nil")
	}
	if name == "" {
		name = cls.Name
	}
	c := &Character{
		Class:     cls,
		ctx:       ctx,
		catalog:   catalog,
		actor:     ctx.NewActor(entity.Player, name, cls.Stats, pos),
		canMove:   true,
		canAttack: true,
	}
	fail := func(err error) (*Character, error) {
		c.actor.Destroy()
		return nil, fmt.Errorf("character.Build: class %q: %w", cls.ID, err)
	}

	var err error
	if c.base, err = catalog.NewWeapon(ctx, c, cls.BaseWeapon); err != nil {
		return fail(err)
	}
	if cls.PrimaryWeapon != "" {
		if c.primary, err = catalog.NewWeapon(ctx, c, cls.PrimaryWeapon); err != nil {
			return fail(err)
		}
	}
	if cls.Ability != "" {
		if c.ability, err = catalog.New(ctx, c, cls.Ability); err != nil {
			return fail(err)
		}
	}
	if cls.Heal != "" {
		if c.heal, err = catalog.New(ctx, c, cls.Heal); err != nil {
			return fail(err)
		}
	}

	c.actor.Own(
		c.actor.Stats.Died().Subscribe(func(struct{}) { c.die() }),
		entity.ReleaseFunc(func() {
			c.ammo.Close()
			c.pressed.Close()
			c.deaths.Close()
		}),
	)
	c.wield(c.base)
	return c, nil
}

// Actor returns the character's body.
func (c *Character) Actor() *entity.Actor { return c.actor }

// ID returns the actor ID.
func (c *Character) ID() string { return c.actor.ID }

func (c *Character) CanAttack() bool     { return c.canAttack }
func (c *Character) SetCanAttack(v bool) { c.canAttack = v }
func (c *Character) CanMove() bool       { return c.canMove }
func (c *Character) Dead() bool          { return c.dead }

// LockMovement stops the character in place, or releases it.
func (c *Character) LockMovement(on bool) {
	c.canMove = !on
	if on {
		c.actor.Nav.Stop()
	} else {
		c.actor.Nav.Resume()
	}
}

// AbilityPressed publishes every press of the ability button. Traps the
// character dropped listen to it for remote detonation.
func (c *Character) AbilityPressed() *event.Topic[struct{}] { return &c.pressed }

// AmmoChanged publishes the current weapon's magazine after every change,
// including weapon swaps.
func (c *Character) AmmoChanged() *event.Topic[ability.Magazine] { return &c.ammo }

// Died publishes once per death.
func (c *Character) Died() *event.Topic[*Character] { return &c.deaths }

func (c *Character) Current() *ability.Weapon { return c.current }
func (c *Character) Base() *ability.Weapon    { return c.base }
func (c *Character) Primary() *ability.Weapon { return c.primary }
func (c *Character) Ability() ability.Useable { return c.ability }
func (c *Character) Heal() ability.Useable    { return c.heal }

// MoveTo sets the navigation destination. It reports false while the
// character is dead or its movement is locked.
func (c *Character) MoveTo(dst geom.Vec) bool {
	if c.dead || !c.canMove {
		return false
	}
	c.actor.Nav.SetDestination(dst)
	return true
}

// Aim turns the character toward dir.
func (c *Character) Aim(dir geom.Vec) {
	if !c.dead && !dir.IsZero() {
		c.actor.Facing = dir.Normalize()
	}
}

// Press handles a button press. Presses are ignored while the character is
// dead or not allowed to attack; the result reports whether the action
// started.
func (c *Character) Press(a Action) bool {
	if c.dead || !c.canAttack {
		return false
	}
	switch a {
	case Shoot:
		c.current.Hold(true)
		return true
	case Reload:
		return c.current.Reload()
	case ChangeWeapon:
		return c.ChangeWeapon()
	case UseAbility:
		c.pressed.Publish(struct{}{})
		return c.ability != nil && c.ability.Use(nil)
	case UseHeal:
		return c.heal != nil && c.heal.Use(nil)
	}
	return false
}

// Release handles a button release. Only Shoot has a release action.
func (c *Character) Release(a Action) {
	if a == Shoot && !c.dead {
		c.current.Hold(false)
	}
}

// ChangeWeapon swaps between the base and primary weapons. It reports false
// when the character carries only one of them.
func (c *Character) ChangeWeapon() bool {
	var next *ability.Weapon
	switch {
	case c.current == c.primary && c.base != nil:
		next = c.base
	case c.current == c.base && c.primary != nil:
		next = c.primary
	default:
		return false
	}
	c.current.Hold(false)
	next.Reset()
	c.wield(next)
	return true
}

// Equip replaces the primary weapon with weapon id and wields it.
//
// Postcondition: Returns an error, leaving the loadout unchanged, when id is
// unknown or not a primary weapon.
func (c *Character) Equip(id string) error {
	def, ok := c.catalog.Weapon(id)
	if !ok {
		return fmt.Errorf("character.Equip: unknown weapon %q", id)
	}
	if def.Slot != ability.SlotPrimary {
		return fmt.Errorf("character.Equip: weapon %q is not a primary weapon", id)
	}
	w := ability.NewWeapon(c.ctx, c, def)
	c.current.Hold(false)
	if c.primary != nil {
		c.primary.Release()
	}
	c.primary = w
	c.wield(w)
	return nil
}

// Respawn revives a dead character at pos with full resources and its base
// weapon in hand. It reports false for a living character.
func (c *Character) Respawn(pos geom.Vec) bool {
	if !c.dead || c.actor.IsDestroyed() {
		return false
	}
	c.dead = false
	c.ctx.Cues.Toggle(c.actor.ID, CueDead, false)
	c.actor.Effects.Reset()
	c.actor.Stats.Revive()
	c.actor.Stats.ResetMovementSpeed()
	c.canAttack = true
	c.LockMovement(false)
	if c.primary != nil {
		c.primary.Refill()
	}
	c.base.Refill()
	if c.current != c.base {
		c.ChangeWeapon()
	}
	c.actor.Nav.Warp(pos)
	return true
}

// Relocate moves a living character to pos without any other change.
func (c *Character) Relocate(pos geom.Vec) {
	c.actor.Nav.Warp(pos)
}

// wield makes w current and forwards its ammo changes.
func (c *Character) wield(w *ability.Weapon) {
	if c.forward != nil {
		c.forward.Release()
	}
	c.current = w
	c.forward = w.AmmoChanged().Subscribe(func(m ability.Magazine) { c.ammo.Publish(m) })
	c.ammo.Publish(w.Magazine())
}

func (c *Character) die() {
	if c.dead {
		return
	}
	c.dead = true
	c.current.Hold(false)
	c.actor.Nav.Stop()
	c.ctx.Cues.Toggle(c.actor.ID, CueDead, true)
	c.deaths.Publish(c)
}
