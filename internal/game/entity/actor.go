// Package entity defines the simulated bodies of a match (player characters
// and enemies), their lifetimes, the live registries that track them, and the
// collaborator interfaces through which the simulation consumes physics,
// navigation and presentation.
package entity

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/condition"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// Kind separates the two sides of a match.
type Kind int

const (
	Player Kind = iota
	Enemy
)

func (k Kind) String() string {
	switch k {
	case Player:
		return "player"
	case Enemy:
		return "enemy"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Opponent returns the other side.
func (k Kind) Opponent() Kind {
	if k == Player {
		return Enemy
	}
	return Player
}

// Actor is one simulated body.
//
// Invariant: Stats and Effects are non-nil for the actor's whole life; Nav is
// non-nil once the actor has been handed out by its constructor.
type Actor struct {
	ID     string
	Kind   Kind
	Name   string
	Pos    geom.Vec
	Facing geom.Vec
	Radius float64
	// Hidden actors are present in the match but not yet revealed; they are
	// excluded from targeting.
	Hidden bool

	Stats   *stats.Block
	Effects *condition.Set
	Nav     Navigator

	life      Lifetime
	destroyed event.Topic[*Actor]
}

// NewActor assembles an Actor from its components.
//
// Precondition: id must be non-empty; block and effects must be non-nil.
func NewActor(id string, kind Kind, name string, block *stats.Block, effects *condition.Set) *Actor {
	if id == "" {
		panic("entity.NewActor: id must not be empty")
	}
	if block == nil || effects == nil {
		panic(fmt.Sprintf("entity.NewActor: %s %q is missing its stat block or effect set", kind, id))
	}
	return &Actor{
		ID:      id,
		Kind:    kind,
		Name:    name,
		Facing:  geom.V(0, 1),
		Radius:  0.5,
		Stats:   block,
		Effects: effects,
	}
}

// Alive reports whether the actor is neither dead nor destroyed.
func (a *Actor) Alive() bool {
	return !a.life.Ended() && !a.Stats.Dead()
}

// Targetable reports whether opponents may select the actor.
func (a *Actor) Targetable() bool {
	return a.Alive() && !a.Hidden
}

// IsDestroyed reports whether Destroy has run.
func (a *Actor) IsDestroyed() bool { return a.life.Ended() }

// Own ties r to the actor's lifetime. If the actor is already destroyed, r is
// released immediately.
func (a *Actor) Own(r ...Releaser) { a.life.Own(r...) }

// Destroyed publishes once when the actor is destroyed.
func (a *Actor) Destroyed() *event.Topic[*Actor] { return &a.destroyed }

// Destroy releases every subscription and timed task the actor owns, cancels
// its status effects and closes its stat topics. Idempotent.
func (a *Actor) Destroy() {
	if a.life.Ended() {
		return
	}
	a.life.End()
	a.Effects.Clear()
	if a.Nav != nil {
		a.Nav.Stop()
	}
	a.destroyed.Publish(a)
	a.destroyed.Close()
	a.Stats.Close()
}

// DistSq is the squared distance between two actors' positions.
func (a *Actor) DistSq(o *Actor) float64 { return a.Pos.DistSq(o.Pos) }
