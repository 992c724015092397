package ability

import (
	"math"

	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// Throw throws its area toward a target, or along the owner's facing, up to
// ThrowRange. A wall or body in the way stops the throw short.
type Throw struct {
	Def *Def

	ctx    *sim.Context
	owner  Owner
	cd     Cooldown
	thrown event.Topic[*Area]
}

// NewThrow builds a throw ability for owner.
//
// Precondition: def.Kind == KindThrow and def came from a Catalog.
func NewThrow(ctx *sim.Context, owner Owner, def *Def) *Throw {
	t := &Throw{Def: def, ctx: ctx, owner: owner, cd: Cooldown{Duration: def.Cooldown}}
	owner.Actor().Own(entity.ReleaseFunc(t.thrown.Close))
	return t
}

// Thrown publishes every area the ability spawns.
func (t *Throw) Thrown() *event.Topic[*Area] { return &t.thrown }

func (t *Throw) CanUse() bool {
	return t.owner.Actor().Alive() && t.cd.CanUse(t.ctx.Sched.Now())
}

func (t *Throw) Use(target *entity.Actor) bool {
	if !t.CanUse() {
		return false
	}
	a := t.owner.Actor()
	dir, dist := a.Facing, t.Def.ThrowRange
	if target != nil {
		if to := target.Pos.Sub(a.Pos); !to.IsZero() {
			dir = to.Normalize()
			dist = math.Min(to.Len(), dist)
		}
	}
	if hit, ok := t.ctx.Sight.Raycast(a.Pos, dir, dist, a); ok {
		dist = hit.Dist
	}
	t.cd.Trigger(t.ctx.Sched.Now())
	if t.Def.Cue != "" {
		t.ctx.Cues.Play(t.Def.Cue, a.Pos)
	}
	area := SpawnArea(t.ctx, t.Def.area, t.owner, a.Pos.Add(dir.Scale(dist)), dir)
	t.thrown.Publish(area)
	return true
}
