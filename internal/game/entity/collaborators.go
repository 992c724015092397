package entity

import (
	"time"

	"github.com/cory-johannsen/arena/internal/game/geom"
)

// SpatialIndex answers overlap queries. The simulation interprets results and
// never implements broad-phase collision itself.
type SpatialIndex interface {
	// Overlap returns the actors whose bodies intersect the circle at center
	// with radius, in a stable order.
	Overlap(center geom.Vec, radius float64) []*Actor
}

// Hit is the result of a line-of-sight query.
type Hit struct {
	// Actor is the nearest blocking actor, or nil when a wall blocked first.
	Actor *Actor
	Point geom.Vec
	Dist  float64
}

// LineOfSight answers visibility queries.
type LineOfSight interface {
	// Raycast returns the nearest blocking hit from origin along dir within
	// maxDist, ignoring ignore. ok is false when nothing blocks.
	Raycast(origin, dir geom.Vec, maxDist float64, ignore *Actor) (hit Hit, ok bool)
}

// Navigator moves one actor. The simulation sets destinations and reads
// flags; the collaborator advances the body each tick.
type Navigator interface {
	SetDestination(dst geom.Vec)
	// Stop pauses path following until Resume.
	Stop()
	Resume()
	Stopped() bool
	Arrived() bool
	// Warp teleports the body without path following.
	Warp(pos geom.Vec)
	SetSpeed(speed float64)
	// Push applies an impulse velocity that decays over the given time,
	// independent of path following.
	Push(velocity geom.Vec, over time.Duration)
}

// Navigation creates the Navigator for a newly built actor.
type Navigation interface {
	Agent(a *Actor) Navigator
}

// Cues triggers named presentation cues (particles, sound, animation flags).
// The simulation never reads cue state back.
type Cues interface {
	// Toggle sets a boolean cue on one actor, e.g. "running" or "poison".
	Toggle(actorID, cue string, on bool)
	// Play fires a one-shot cue at a world position, e.g. "explosion".
	Play(cue string, at geom.Vec)
}

// NopCues discards every cue. It stands in when no presentation layer is
// attached.
type NopCues struct{}

func (NopCues) Toggle(string, string, bool) {}
func (NopCues) Play(string, geom.Vec)       {}
