// Package sim holds the per-match service context. Every component that
// needs time, randomness, collaborators or the live registries receives a
// *Context at construction instead of reaching for globals.
package sim

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/condition"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sched"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// Options are the services supplied by the match builder. Spatial, Sight
// and Navigation are required; the rest have defaults.
type Options struct {
	Clock      *sched.Clock
	Spatial    entity.SpatialIndex
	Sight      entity.LineOfSight
	Navigation entity.Navigation
	Cues       entity.Cues
	Rand       dice.Source
	Scripts    condition.ScriptCaller
	Logger     *zap.Logger
	Players    entity.Roster
	Enemies    entity.Roster
}

// Context is the per-match service bundle.
//
// It is not safe for concurrent use; one match runs on one goroutine.
type Context struct {
	Clock      *sched.Clock
	Sched      *sched.Scheduler
	Spatial    entity.SpatialIndex
	Sight      entity.LineOfSight
	Navigation entity.Navigation
	Cues       entity.Cues
	Rand       dice.Source
	Roller     *dice.Roller
	Scripts    condition.ScriptCaller
	Logger     *zap.Logger

	// Players and Enemies are read-only views of the orchestrator's live
	// registries.
	Players entity.Roster
	Enemies entity.Roster
}

// New builds a Context.
//
// Precondition: opts.Spatial, opts.Sight, opts.Navigation, opts.Players and
// opts.Enemies must be non-nil.
func New(opts Options) *Context {
	switch {
	case opts.Spatial == nil:
		panic("sim.New: spatial index must not be nil")
	case opts.Sight == nil:
		panic("sim.New: line of sight must not be nil")
	case opts.Navigation == nil:
		panic("sim.New: navigation must not be nil")
	case opts.Players == nil || opts.Enemies == nil:
		panic("sim.New: rosters must not be nil")
	}
	if opts.Clock == nil {
		opts.Clock = &sched.Clock{}
	}
	if opts.Cues == nil {
		opts.Cues = entity.NopCues{}
	}
	if opts.Rand == nil {
		opts.Rand = dice.NewCryptoSource()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Context{
		Clock:      opts.Clock,
		Sched:      sched.NewScheduler(opts.Clock),
		Spatial:    opts.Spatial,
		Sight:      opts.Sight,
		Navigation: opts.Navigation,
		Cues:       opts.Cues,
		Rand:       opts.Rand,
		Roller:     dice.NewLoggedRoller(opts.Rand, opts.Logger.Named("dice")),
		Scripts:    opts.Scripts,
		Logger:     opts.Logger,
		Players:    opts.Players,
		Enemies:    opts.Enemies,
	}
}

// Roster returns the live view for kind.
func (c *Context) Roster(kind entity.Kind) entity.Roster {
	if kind == entity.Player {
		return c.Players
	}
	return c.Enemies
}

// NewActor builds a fully wired actor at pos: a stat block from cfg, an
// effect set routed to the context's cues and scripts, and a navigator.
//
// Precondition: cfg.Validate() == nil.
// Postcondition: the returned actor has non-nil Stats, Effects and Nav.
func (c *Context) NewActor(kind entity.Kind, name string, cfg stats.Config, pos geom.Vec) *entity.Actor {
	id := uuid.NewString()
	block := stats.New(cfg)
	opts := []condition.Option{
		condition.WithLogger(c.Logger),
		condition.WithCues(func(cue string, on bool) { c.Cues.Toggle(id, cue, on) }),
	}
	if c.Scripts != nil {
		opts = append(opts, condition.WithScripts(c.Scripts))
	}
	a := entity.NewActor(id, kind, name, block, condition.NewSet(id, block, c.Sched, opts...))
	a.Pos = pos
	a.Nav = c.Navigation.Agent(a)
	if a.Nav == nil {
		panic("sim.Context.NewActor: navigation returned no agent for " + name)
	}
	a.Nav.SetSpeed(block.MovementSpeed())
	a.Own(block.Changed().Subscribe(func(ch stats.Change) {
		if ch.Kind == stats.MovementSpeed {
			a.Nav.SetSpeed(ch.Value)
		}
	}))
	return a
}

// Opponents returns the living opponents of kind.
func (c *Context) Opponents(kind entity.Kind) []*entity.Actor {
	return c.Roster(kind.Opponent()).Living()
}

// OverlapKind filters an overlap query to living, revealed actors of kind.
func (c *Context) OverlapKind(center geom.Vec, radius float64, kind entity.Kind) []*entity.Actor {
	var out []*entity.Actor
	for _, a := range c.Spatial.Overlap(center, radius) {
		if a.Kind == kind && a.Targetable() {
			out = append(out, a)
		}
	}
	return out
}
