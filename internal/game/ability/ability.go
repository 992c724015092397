// Package ability implements cooldown-gated actions: player weapons, heals,
// throwables and drop traps, and the enemy melee, charge and song attacks.
//
// Every timed phase of an action is a scheduler task owned by the acting
// entity's lifetime, so destroying the entity cancels it.
package ability

import (
	"time"

	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
)

// Useable is the capability shared by every action.
type Useable interface {
	// CanUse reports whether Use would start the action now.
	CanUse() bool
	// Use starts the action against target, which may be nil for actions
	// aimed along the user's facing. It returns false without side effects
	// when CanUse is false.
	Use(target *entity.Actor) bool
}

// Owner is the control surface an action drives on the entity using it.
type Owner interface {
	Actor() *entity.Actor
	CanAttack() bool
	SetCanAttack(bool)
	// LockMovement stops or resumes the owner's own movement.
	LockMovement(bool)
}

// Presser is implemented by owners whose ability button can remotely
// trigger traps they dropped earlier.
type Presser interface {
	AbilityPressed() *event.Topic[struct{}]
}

// Targeter is implemented by owners that track a current target and an
// escalating damage modifier, i.e. enemies.
type Targeter interface {
	Target() *entity.Actor
	Modifier() float64
	AddModifier(float64)
	// ChargeTarget is the position a charge dashes toward.
	ChargeTarget() geom.Vec
}

// Cooldown gates an action on elapsed simulated time.
//
// The zero value has never been used and is ready.
type Cooldown struct {
	Duration time.Duration
	last     time.Duration
	used     bool
}

// CanUse reports whether the gate is open at now: never used, or at least
// Duration elapsed since the last Trigger.
func (c *Cooldown) CanUse(now time.Duration) bool {
	return !c.used || now-c.last >= c.Duration
}

// Trigger records a use at now.
func (c *Cooldown) Trigger(now time.Duration) {
	c.last = now
	c.used = true
}

// Remaining returns the time until the gate opens, or 0 when it is open.
func (c *Cooldown) Remaining(now time.Duration) time.Duration {
	if c.CanUse(now) {
		return 0
	}
	return c.Duration - (now - c.last)
}

// Reset opens the gate immediately.
func (c *Cooldown) Reset() { c.used = false }
