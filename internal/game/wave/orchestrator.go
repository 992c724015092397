package wave

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/cory-johannsen/arena/internal/game/sched"
	"github.com/cory-johannsen/arena/internal/game/sim"
	"github.com/cory-johannsen/arena/internal/game/world"
)

// Phase is the orchestrator's position in the match.
type Phase int

const (
	Idle Phase = iota
	PreRoll
	Spawning
	Active
	Resolution
	Intermission
	Victory
	Defeat
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case PreRoll:
		return "pre_roll"
	case Spawning:
		return "spawning"
	case Active:
		return "active"
	case Resolution:
		return "resolution"
	case Intermission:
		return "intermission"
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Finished reports whether p ends the match.
func (p Phase) Finished() bool { return p == Victory || p == Defeat }

// Started is published when a wave begins spawning.
type Started struct {
	Wave    int // 1-based
	Enemies int // roster size
}

// Ended is published when a wave's last enemy has died.
type Ended struct {
	Wave      int
	Succeeded bool
}

// Spawner builds enemies. *npc.Manager implements it.
type Spawner interface {
	Spawn(template string, pos geom.Vec) (*npc.Enemy, error)
}

// Options are the orchestrator's collaborators.
type Options struct {
	Schedule *Schedule
	Layout   *world.Layout
	Spawner  Spawner
	// Players and Enemies are the live registries the orchestrator owns.
	Players *entity.Registry
	Enemies *entity.Registry
}

// spawn is one pending roster member.
type spawn struct {
	enemy string
	size  world.SizeClass
}

// Orchestrator runs the wave schedule. It is advanced by Update once per
// simulation tick, after enemies have been updated.
//
// Invariant: only the orchestrator adds to or removes from its registries.
//
// It is not safe for concurrent use; the caller must serialise access.
type Orchestrator struct {
	ctx     *sim.Context
	sched   *Schedule
	layout  *world.Layout
	spawner Spawner
	players *entity.Registry
	enemies *entity.Registry
	logger  *zap.Logger

	chars []*character.Character
	tasks sched.Group
	subs  []*event.Subscription

	phase     Phase
	wave      int // index into sched.Waves of the current wave
	number    int // 1-based, 0 before the first wave
	mark      time.Duration
	delay     time.Duration
	pending   []spawn
	nextSpawn time.Duration
	spawned   int

	started  event.Topic[Started]
	ended    event.Topic[Ended]
	finished event.Topic[Phase]
}

// New creates an Orchestrator in the Idle phase.
//
// Precondition: ctx and every Options field must be non-nil.
func New(ctx *sim.Context, opts Options) *Orchestrator {
	if ctx == nil || opts.Schedule == nil || opts.Layout == nil || opts.Spawner == nil || opts.Players == nil || opts.Enemies == nil {
		panic("wave.New: ctx and every option must not be nil")
	}
	return &Orchestrator{
		ctx:     ctx,
		sched:   opts.Schedule,
		layout:  opts.Layout,
		spawner: opts.Spawner,
		players: opts.Players,
		enemies: opts.Enemies,
		logger:  ctx.Logger.Named("wave"),
	}
}

func (o *Orchestrator) Phase() Phase { return o.phase }

// Wave returns the 1-based number of the current wave, 0 before the first.
func (o *Orchestrator) Wave() int { return o.number }

// Spawned returns how many enemies the current wave has released.
func (o *Orchestrator) Spawned() int { return o.spawned }

// Remaining returns how many enemies of the current wave are still alive.
func (o *Orchestrator) Remaining() int { return o.enemies.Len() }

func (o *Orchestrator) WaveStarted() *event.Topic[Started] { return &o.started }
func (o *Orchestrator) WaveEnded() *event.Topic[Ended]     { return &o.ended }

// Finished publishes Victory or Defeat once.
func (o *Orchestrator) Finished() *event.Topic[Phase] { return &o.finished }

// Characters returns the players in spawn order.
func (o *Orchestrator) Characters() []*character.Character {
	return append([]*character.Character(nil), o.chars...)
}

// Start places chars at distinct random player spawns, hidden and locked,
// starts their reveal sequence and enters the pre-roll.
//
// Precondition: the orchestrator is Idle.
// Postcondition: Returns an error, and changes nothing, when chars is empty
// or there are fewer player spawns than characters.
func (o *Orchestrator) Start(chars []*character.Character) error {
	if o.phase != Idle {
		return errors.New("wave.Orchestrator.Start: already started")
	}
	if len(chars) == 0 {
		return errors.New("wave.Orchestrator.Start: no players")
	}
	points := append([]geom.Vec(nil), o.layout.PlayerSpawns...)
	if len(chars) > len(points) {
		return fmt.Errorf("wave.Orchestrator.Start: %d players for %d spawn points", len(chars), len(points))
	}

	for _, c := range chars {
		i := dice.Pick(o.ctx.Rand, len(points))
		pos := points[i]
		points = append(points[:i], points[i+1:]...)

		a := c.Actor()
		a.Hidden = true
		c.LockMovement(true)
		c.Relocate(pos)
		o.players.Add(a)
		o.chars = append(o.chars, c)
		o.subs = append(o.subs, c.Died().Subscribe(o.playerDied))
	}
	o.tasks.Add(o.ctx.Sched.Run(o.revealSteps()...))

	o.phase = PreRoll
	o.mark = o.ctx.Sched.Now()
	o.logger.Info("match started",
		zap.Int("players", len(chars)),
		zap.Int("waves", len(o.sched.Waves)),
		zap.Duration("pre_roll", o.sched.PreRoll),
	)
	return nil
}

func (o *Orchestrator) revealSteps() []sched.Step {
	ps := o.sched.Players
	steps := []sched.Step{sched.Wait(ps.SpawnDelay)}
	for _, c := range o.chars {
		steps = append(steps, sched.Do(func() {
			c.Actor().Hidden = false
			o.logger.Debug("player revealed", zap.String("player", c.ID()))
		}), sched.Wait(ps.Stagger))
	}
	return append(steps, sched.Wait(ps.LockedTime), sched.Do(func() {
		for _, c := range o.chars {
			if !c.Dead() {
				c.LockMovement(false)
			}
		}
	}))
}

// Update advances the phase machine. Defeat is checked first, on every call.
func (o *Orchestrator) Update() {
	if o.phase == Idle || o.phase.Finished() {
		return
	}
	if o.checkDefeat() {
		return
	}
	now := o.ctx.Sched.Now()
	switch o.phase {
	case PreRoll:
		if now >= o.mark+o.sched.PreRoll {
			o.beginWave(0)
		}
	case Spawning:
		o.release(now)
	case Active:
		switch {
		case o.enemies.Len() == 0:
			o.endWave(true)
		case now >= o.mark+o.current().TimeLimit:
			o.phase = Resolution
			o.logger.Info("wave time limit expired",
				zap.Int("wave", o.Wave()),
				zap.Int("remaining", o.enemies.Len()),
			)
		}
	case Resolution:
		if o.enemies.Len() == 0 {
			o.endWave(false)
		}
	case Intermission:
		if now >= o.mark+o.delay {
			o.beginWave(o.wave + 1)
		}
	}
}

func (o *Orchestrator) current() *Wave { return &o.sched.Waves[o.wave] }

// beginWave rolls the roster of wave i and starts releasing it.
func (o *Orchestrator) beginWave(i int) {
	o.wave, o.number = i, i+1
	o.phase = Spawning
	o.spawned = 0
	o.pending = o.pending[:0]
	w := o.current()
	for _, e := range w.Enemies {
		for n := dice.Range(o.ctx.Rand, e.Min, e.Max); n > 0; n-- {
			o.pending = append(o.pending, spawn{enemy: e.Enemy, size: e.Size})
		}
	}
	now := o.ctx.Sched.Now()
	o.nextSpawn = now + w.SpawnInterval
	o.logger.Info("wave started", zap.Int("wave", o.Wave()), zap.Int("enemies", len(o.pending)))
	o.started.Publish(Started{Wave: o.Wave(), Enemies: len(o.pending)})
	o.release(now)
}

// release spawns every roster member whose interval has elapsed, picking a
// random remaining member each time. When the roster is exhausted the time
// limit starts.
func (o *Orchestrator) release(now time.Duration) {
	w := o.current()
	for len(o.pending) > 0 && now >= o.nextSpawn {
		i := dice.Pick(o.ctx.Rand, len(o.pending))
		s := o.pending[i]
		o.pending = append(o.pending[:i], o.pending[i+1:]...)
		o.nextSpawn += w.SpawnInterval
		o.spawnOne(s)
	}
	if len(o.pending) == 0 {
		o.phase = Active
		o.mark = now
		o.logger.Debug("wave spawned", zap.Int("wave", o.Wave()), zap.Int("spawned", o.spawned))
	}
}

func (o *Orchestrator) spawnOne(s spawn) {
	points := o.layout.SpawnPoints(s.size)
	if len(points) == 0 {
		o.logger.Warn("no spawn point for size class",
			zap.String("enemy", s.enemy),
			zap.String("size", string(s.size)),
		)
		return
	}
	pos := points[dice.Pick(o.ctx.Rand, len(points))]
	e, err := o.spawner.Spawn(s.enemy, pos)
	if err != nil {
		o.logger.Warn("enemy spawn failed", zap.String("enemy", s.enemy), zap.Error(err))
		return
	}
	a := e.Actor()
	a.Nav.Warp(pos)
	o.enemies.Add(a)
	o.spawned++
	a.Own(e.Died().Subscribe(func(npc.Death) { o.enemies.Remove(a.ID) }))
	a.Destroyed().Subscribe(func(*entity.Actor) { o.enemies.Remove(a.ID) })
}

func (o *Orchestrator) endWave(succeeded bool) {
	w := o.current()
	o.logger.Info("wave ended", zap.Int("wave", o.Wave()), zap.Bool("succeeded", succeeded))
	o.ended.Publish(Ended{Wave: o.Wave(), Succeeded: succeeded})
	o.respawn()
	if o.phase.Finished() {
		return
	}
	if o.wave == len(o.sched.Waves)-1 {
		o.finish(Victory)
		return
	}
	o.phase = Intermission
	o.mark = o.ctx.Sched.Now()
	o.delay = w.DelayFailed
	if succeeded {
		o.delay = w.DelaySucceeded
	}
}

// respawn revives dead players and moves living ones, each to a random
// respawn point.
func (o *Orchestrator) respawn() {
	points := o.layout.RespawnPoints
	for _, c := range o.chars {
		pos := points[dice.Pick(o.ctx.Rand, len(points))]
		if c.Dead() {
			c.Respawn(pos)
			o.logger.Debug("player respawned", zap.String("player", c.ID()))
			continue
		}
		c.Relocate(pos)
	}
}

func (o *Orchestrator) playerDied(*character.Character) { o.checkDefeat() }

// checkDefeat ends the match when every player is dead at once.
func (o *Orchestrator) checkDefeat() bool {
	if o.phase == Idle || o.phase.Finished() {
		return o.phase == Defeat
	}
	for _, c := range o.chars {
		if !c.Dead() {
			return false
		}
	}
	o.finish(Defeat)
	return true
}

func (o *Orchestrator) finish(p Phase) {
	o.phase = p
	o.tasks.CancelAll()
	o.logger.Info("match finished",
		zap.Stringer("outcome", p),
		zap.Int("wave", o.Wave()),
		zap.Duration("elapsed", o.ctx.Sched.Now()),
	)
	o.finished.Publish(p)
}

// Close releases the orchestrator's subscriptions and timed tasks.
func (o *Orchestrator) Close() {
	o.tasks.CancelAll()
	for _, s := range o.subs {
		s.Release()
	}
	o.subs = nil
	o.started.Close()
	o.ended.Close()
	o.finished.Close()
}
