package ability

import (
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// Heal restores health and optionally grants shield, instantly.
type Heal struct {
	Def *Def

	ctx   *sim.Context
	owner Owner
	cd    Cooldown
}

// NewHeal builds a heal ability for owner.
func NewHeal(ctx *sim.Context, owner Owner, def *Def) *Heal {
	return &Heal{Def: def, ctx: ctx, owner: owner, cd: Cooldown{Duration: def.Cooldown}}
}

func (h *Heal) CanUse() bool {
	return h.owner.Actor().Alive() && h.cd.CanUse(h.ctx.Sched.Now())
}

// Use heals target, or the owner when target is nil.
func (h *Heal) Use(target *entity.Actor) bool {
	if !h.CanUse() {
		return false
	}
	if target == nil {
		target = h.owner.Actor()
	}
	if !target.Alive() {
		return false
	}
	h.cd.Trigger(h.ctx.Sched.Now())
	if h.Def.Amount > 0 {
		target.Stats.ModifyHealth(h.Def.Amount)
	}
	if h.Def.Shield > 0 {
		target.Stats.ModifyShield(h.Def.Shield)
	}
	if h.Def.Cue != "" {
		h.ctx.Cues.Play(h.Def.Cue, target.Pos)
	}
	return true
}
