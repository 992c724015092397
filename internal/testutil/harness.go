// Package testutil provides a ready-wired simulation harness for package
// tests: an open arena, live registries, reference physics and a manually
// stepped clock.
package testutil

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sim"
	"github.com/cory-johannsen/arena/internal/game/stats"
	"github.com/cory-johannsen/arena/internal/game/world"
)

// OpenArena is a 100x100 layout centred on the origin with no obstacles.
func OpenArena() *world.Layout {
	return &world.Layout{
		ID:            "test",
		Name:          "Test Arena",
		Bounds:        world.Rect{X: -50, Y: -50, Width: 100, Height: 100},
		PlayerSpawns:  []geom.Vec{geom.V(0, 0), geom.V(2, 0), geom.V(4, 0), geom.V(6, 0)},
		RespawnPoints: []geom.Vec{geom.V(0, -10), geom.V(0, -12)},
		EnemySpawns: map[world.SizeClass][]geom.Vec{
			world.Small:  {geom.V(20, 20), geom.V(-20, 20)},
			world.Medium: {geom.V(20, -20)},
			world.Large:  {geom.V(-20, -20)},
			world.Boss:   {geom.V(0, 40)},
		},
	}
}

// Cue records one cue call.
type Cue struct {
	Actor string
	Name  string
	On    bool
	At    geom.Vec
}

// RecordingCues implements entity.Cues by recording every call.
type RecordingCues struct {
	Calls []Cue
}

func (r *RecordingCues) Toggle(actorID, cue string, on bool) {
	r.Calls = append(r.Calls, Cue{Actor: actorID, Name: cue, On: on})
}

func (r *RecordingCues) Play(cue string, at geom.Vec) {
	r.Calls = append(r.Calls, Cue{Name: cue, On: true, At: at})
}

// Last returns the most recent call named name.
func (r *RecordingCues) Last(name string) (Cue, bool) {
	for i := len(r.Calls) - 1; i >= 0; i-- {
		if r.Calls[i].Name == name {
			return r.Calls[i], true
		}
	}
	return Cue{}, false
}

// Harness is a wired simulation context plus the writable registries behind
// its rosters.
type Harness struct {
	Ctx     *sim.Context
	Players *entity.Registry
	Enemies *entity.Registry
	Space   *world.Space
	Cues    *RecordingCues
}

// NewHarness builds a Harness over layout (OpenArena when nil) drawing from
// src (a seeded source when nil).
func NewHarness(t *testing.T, layout *world.Layout, src dice.Source) *Harness {
	t.Helper()
	if layout == nil {
		layout = OpenArena()
	}
	if src == nil {
		src = dice.NewSeededSource(1)
	}
	h := &Harness{
		Players: entity.NewRegistry(),
		Enemies: entity.NewRegistry(),
		Cues:    &RecordingCues{},
	}
	h.Space = world.NewSpace(layout, h.Players, h.Enemies)
	h.Ctx = sim.New(sim.Options{
		Spatial:    h.Space,
		Sight:      h.Space,
		Navigation: h.Space,
		Cues:       h.Cues,
		Rand:       src,
		Logger:     zaptest.NewLogger(t),
		Players:    h.Players,
		Enemies:    h.Enemies,
	})
	return h
}

// Player builds and registers a player actor at pos.
func (h *Harness) Player(name string, cfg stats.Config, pos geom.Vec) *entity.Actor {
	a := h.Ctx.NewActor(entity.Player, name, cfg, pos)
	h.Players.Add(a)
	return a
}

// Enemy builds and registers an enemy actor at pos.
func (h *Harness) Enemy(name string, cfg stats.Config, pos geom.Vec) *entity.Actor {
	a := h.Ctx.NewActor(entity.Enemy, name, cfg, pos)
	h.Enemies.Add(a)
	return a
}

// Step advances the clock by dt, resumes scheduled tasks and moves agents.
func (h *Harness) Step(dt time.Duration) {
	h.Ctx.Clock.Advance(dt)
	h.Ctx.Sched.Advance()
	h.Space.Step(dt)
}

// StepFor repeatedly steps by tick until total has elapsed, calling each
// between steps when non-nil.
func (h *Harness) StepFor(total, tick time.Duration, each func()) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += tick {
		h.Step(tick)
		if each != nil {
			each()
		}
	}
}

// Stats is a convenience stat config with the given health and speed.
func Stats(health int, speed float64) stats.Config {
	return stats.Config{MaxHealth: health, MovementSpeed: speed}
}
