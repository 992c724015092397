package match

import (
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// Bot tuning.
const (
	// HealThreshold is the health fraction below which a bot heals.
	HealThreshold = 0.4
	// AbilityRange is how close the nearest enemy must be before a bot
	// uses its class ability.
	AbilityRange = 8.0
	// keepAway is the fraction of weapon range a bot closes to.
	keepAway = 0.6
)

// Bot drives a character with the same button presses a player would make:
// it turns toward the closest enemy, holds the trigger while the enemy is in
// range, heals when hurt and closes distance when out of range.
type Bot struct {
	c   *character.Character
	ctx *sim.Context
}

// NewBot puts c under bot control.
//
// Precondition: ctx and c must be non-nil.
func NewBot(ctx *sim.Context, c *character.Character) *Bot {
	if ctx == nil || c == nil {
		panic("match.NewBot: ctx and character must not be nil")
	}
	return &Bot{c: c, ctx: ctx}
}

func (b *Bot) Character() *character.Character { return b.c }

// Think issues this tick's input.
func (b *Bot) Think() {
	c, a := b.c, b.c.Actor()
	w := c.Current()
	if c.Dead() || a.Hidden {
		return
	}
	target := closest(a, b.ctx.Enemies.Living())
	if target == nil {
		c.Release(character.Shoot)
		return
	}

	to := target.Pos.Sub(a.Pos)
	dist := to.Len()
	c.Aim(to)

	mag := w.Magazine()
	switch {
	case mag.IsEmpty() && !mag.CanReload() && c.Primary() != nil:
		c.Press(character.ChangeWeapon)
	case dist <= w.Def.Range:
		if !w.Holding() {
			c.Press(character.Shoot)
		}
	default:
		c.Release(character.Shoot)
	}

	if h := c.Heal(); h != nil && h.CanUse() &&
		float64(a.Stats.Health()) < HealThreshold*float64(a.Stats.MaxHealth()) {
		c.Press(character.UseHeal)
	}
	if ab := c.Ability(); ab != nil && dist <= AbilityRange && ab.CanUse() {
		c.Press(character.UseAbility)
	}

	if dist > w.Def.Range*keepAway {
		c.MoveTo(target.Pos)
	} else {
		c.MoveTo(a.Pos)
	}
}

func closest(from *entity.Actor, candidates []*entity.Actor) *entity.Actor {
	var best *entity.Actor
	bestSq := 0.0
	for _, o := range candidates {
		if d := from.DistSq(o); best == nil || d < bestSq {
			best, bestSq = o, d
		}
	}
	return best
}
