package ai

import (
	"math"

	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// TieEpsilon is the squared-distance tolerance within which an earlier
// candidate keeps the target over a later one. It keeps enemies from
// flickering between players standing at nearly equal distances.
const TieEpsilon = 0.1

// Closest returns the targetable candidate nearest to from and its squared
// distance. A later candidate replaces the current best only when it is
// closer by more than TieEpsilon. With no targetable candidate it returns
// (nil, +Inf).
func Closest(from geom.Vec, candidates []*entity.Actor) (*entity.Actor, float64) {
	var best *entity.Actor
	shortest := math.Inf(1)
	for _, c := range candidates {
		if !c.Targetable() {
			continue
		}
		d := from.DistSq(c.Pos)
		if best == nil || d+TieEpsilon < shortest {
			best, shortest = c, d
		}
	}
	return best, shortest
}

// InRange reports whether a target at squared distance distSq is inside
// attackRange. stats.MinAttackRange is an unconditional floor: anything that
// close is in range whatever attackRange is.
func InRange(distSq, attackRange float64) bool {
	return distSq <= attackRange*attackRange || distSq <= stats.MinAttackRange*stats.MinAttackRange
}

// InRangeOf returns the targetable candidates within attackRange of from, in
// candidate order.
func InRangeOf(from geom.Vec, candidates []*entity.Actor, attackRange float64) []*entity.Actor {
	var out []*entity.Actor
	for _, c := range candidates {
		if c.Targetable() && InRange(from.DistSq(c.Pos), attackRange) {
			out = append(out, c)
		}
	}
	return out
}

// MostDamaged returns the targetable candidate with the lowest health. The
// first encountered wins ties.
func MostDamaged(candidates []*entity.Actor) *entity.Actor {
	var best *entity.Actor
	for _, c := range candidates {
		if c.Targetable() && (best == nil || c.Stats.Health() < best.Stats.Health()) {
			best = c
		}
	}
	return best
}

// Healthiest returns the targetable candidate with the highest health. The
// first encountered wins ties.
func Healthiest(candidates []*entity.Actor) *entity.Actor {
	var best *entity.Actor
	for _, c := range candidates {
		if c.Targetable() && (best == nil || c.Stats.Health() > best.Stats.Health()) {
			best = c
		}
	}
	return best
}

// CanSee reports whether the first thing along the looker's facing within
// length is a targetable actor of kind, returning that actor.
func CanSee(sight entity.LineOfSight, looker *entity.Actor, length float64, kind entity.Kind) (*entity.Actor, bool) {
	hit, ok := sight.Raycast(looker.Pos, looker.Facing, length, looker)
	if !ok || hit.Actor == nil || hit.Actor.Kind != kind || !hit.Actor.Targetable() {
		return nil, false
	}
	return hit.Actor, true
}
