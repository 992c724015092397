package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/cory-johannsen/arena/internal/game/sim"
	"github.com/cory-johannsen/arena/internal/game/wave"
	"github.com/cory-johannsen/arena/internal/game/world"
	"github.com/cory-johannsen/arena/internal/scripting"
)

// Options configure one match.
type Options struct {
	// Players lists one class ID per player, in spawn order.
	Players []string
	// Seed seeds the match's random source; 0 draws from crypto/rand.
	// Rand, when set, wins over Seed.
	Seed uint64
	Rand dice.Source
	// Cues receives presentation cues; nil discards them.
	Cues   entity.Cues
	Logger *zap.Logger
	// Bots puts every character under Bot control.
	Bots bool
	// ScriptLimit bounds each Lua call; 0 uses the scripting default.
	ScriptLimit int
}

// Result summarises a match.
type Result struct {
	ID       string
	Outcome  wave.Phase
	Wave     int
	Elapsed  time.Duration
	Kills    int
	Crates   int
	Currency int
}

// Match is one running arena match: the service context, the live
// registries, the enemy manager and the wave orchestrator, plus the loot
// lying on the floor.
//
// It is not safe for concurrent use; one match runs on one goroutine.
type Match struct {
	ID string

	content *Content
	ctx     *sim.Context
	space   *world.Space
	players *entity.Registry
	enemies *entity.Registry
	npcs    *npc.Manager
	orch    *wave.Orchestrator
	scripts *scripting.Manager
	chars   []*character.Character
	bots    []*Bot
	logger  *zap.Logger
	subs    []*event.Subscription

	crates   []character.AmmoCrate
	kills    int
	opened   int
	currency int
	closed   bool
}

// New builds a match over content and starts the player spawn sequence.
//
// Precondition: c must have come from Load or passed Validate.
// Postcondition: Returns a match in the pre-roll, or an error when a class
// is unknown, there are no players, or the arena cannot place them.
func New(c *Content, opts Options) (*Match, error) {
	if c == nil {
		panic("match.New: content must not be nil")
	}
	if len(opts.Players) == 0 {
		return nil, errors.New("match.New: at least one player is required")
	}
	classes := make([]*character.Class, 0, len(opts.Players))
	for _, id := range opts.Players {
		cls, ok := c.Class(id)
		if !ok {
			return nil, fmt.Errorf("match.New: unknown class %q", id)
		}
		classes = append(classes, cls)
	}

	src := opts.Rand
	if src == nil {
		if opts.Seed != 0 {
			src = dice.NewSeededSource(opts.Seed)
		} else {
			src = dice.NewCryptoSource()
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Match{
		ID:      uuid.NewString(),
		content: c,
		players: entity.NewRegistry(),
		enemies: entity.NewRegistry(),
	}
	m.logger = logger.With(zap.String("match_id", m.ID))
	m.space = world.NewSpace(c.Layout, m.players, m.enemies)

	simOpts := sim.Options{
		Spatial:    m.space,
		Sight:      m.space,
		Navigation: m.space,
		Cues:       opts.Cues,
		Rand:       src,
		Logger:     m.logger,
		Players:    m.players,
		Enemies:    m.enemies,
	}
	if c.ScriptDir != "" {
		m.scripts = scripting.NewManager(dice.NewLoggedRoller(src, m.logger.Named("dice")), m.logger, opts.ScriptLimit)
		if err := m.scripts.LoadDir(c.ScriptDir); err != nil {
			m.scripts.Close()
			return nil, fmt.Errorf("match.New: %w", err)
		}
		simOpts.Scripts = m.scripts
	}
	m.ctx = sim.New(simOpts)
	if m.scripts != nil {
		m.bindScripts()
	}

	var err error
	if m.npcs, err = npc.NewManager(m.ctx, c.Catalog, npc.Archetypes(), c.Enemies...); err != nil {
		m.Close()
		return nil, fmt.Errorf("match.New: %w", err)
	}
	m.subs = append(m.subs, m.npcs.Deaths().Subscribe(m.enemyDied))

	for i, cls := range classes {
		ch, err := character.Build(m.ctx, c.Catalog, cls, fmt.Sprintf("%s %d", cls.Name, i+1), geom.Vec{})
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("match.New: %w", err)
		}
		m.chars = append(m.chars, ch)
		if opts.Bots {
			m.bots = append(m.bots, NewBot(m.ctx, ch))
		}
	}

	m.orch = wave.New(m.ctx, wave.Options{
		Schedule: c.Schedule,
		Layout:   c.Layout,
		Spawner:  m.npcs,
		Players:  m.players,
		Enemies:  m.enemies,
	})
	m.subs = append(m.subs, m.orch.Finished().Subscribe(func(p wave.Phase) {
		m.logger.Info("match over",
			zap.Stringer("outcome", p),
			zap.Int("kills", m.kills),
			zap.Int("crates", m.opened),
		)
	}))
	if err := m.orch.Start(m.chars); err != nil {
		m.Close()
		return nil, fmt.Errorf("match.New: %w", err)
	}
	return m, nil
}

// bindScripts routes the engine.* Lua modules to this match's actors.
func (m *Match) bindScripts() {
	m.scripts.GetActor = func(id string) *scripting.ActorInfo {
		a, ok := m.actor(id)
		if !ok {
			return nil
		}
		info := &scripting.ActorInfo{
			ID:        a.ID,
			Name:      a.Name,
			Kind:      a.Kind.String(),
			Health:    a.Stats.Health(),
			MaxHealth: a.Stats.MaxHealth(),
			Shield:    a.Stats.Shield(),
		}
		for _, e := range a.Effects.All() {
			info.Effects = append(info.Effects, e.Blueprint.ID)
		}
		return info
	}
	m.scripts.Damage = func(id string, amount int) error {
		a, ok := m.actor(id)
		if !ok {
			return fmt.Errorf("unknown actor %q", id)
		}
		a.Stats.ModifyHealth(-amount)
		return nil
	}
	m.scripts.ApplyEffect = func(id, effectID string) error {
		a, ok := m.actor(id)
		if !ok {
			return fmt.Errorf("unknown actor %q", id)
		}
		bp, ok := m.content.Effects.Get(effectID)
		if !ok {
			return fmt.Errorf("unknown effect %q", effectID)
		}
		a.Effects.Apply(bp)
		return nil
	}
	m.scripts.PlayCue = func(id, cue string) {
		if a, ok := m.actor(id); ok {
			m.ctx.Cues.Play(cue, a.Pos)
		}
	}
}

func (m *Match) actor(id string) (*entity.Actor, bool) {
	if a, ok := m.players.Get(id); ok {
		return a, true
	}
	return m.enemies.Get(id)
}

// enemyDied pays the kill's currency to every living player and drops the
// ammo crate, if any.
func (m *Match) enemyDied(d npc.Death) {
	m.kills++
	if n := d.Loot.Currency; n > 0 {
		for _, ch := range m.chars {
			if !ch.Dead() {
				ch.Actor().Stats.ModifyCurrency(n)
				m.currency += n
			}
		}
	}
	if d.Loot.AmmoCrate == "" {
		return
	}
	crate := character.RollCrate(m.ctx.Rand, d.Loot.AmmoCrate, d.Pos)
	m.crates = append(m.crates, crate)
	m.ctx.Cues.Play(crate.Cue(), crate.Pos)
	m.logger.Debug("ammo crate dropped",
		zap.String("crate", crate.ID),
		zap.Stringer("rarity", crate.Rarity),
	)
}

// pickups opens every crate a living, revealed character stands on.
func (m *Match) pickups() {
	kept := m.crates[:0]
	for _, crate := range m.crates {
		if !m.reached(crate) {
			kept = append(kept, crate)
			continue
		}
		n := crate.Open(m.chars)
		m.opened++
		m.logger.Debug("ammo crate opened",
			zap.String("crate", crate.ID),
			zap.Int("refilled", n),
		)
	}
	m.crates = kept
}

func (m *Match) reached(crate character.AmmoCrate) bool {
	r := character.CratePickupRadius
	for _, ch := range m.chars {
		a := ch.Actor()
		if !ch.Dead() && a.Targetable() && a.Pos.DistSq(crate.Pos) <= r*r {
			return true
		}
	}
	return false
}

// Step advances the match by dt: time, scheduled tasks, bot input, movement,
// enemy AI, the wave state machine and loot pickup, in that order.
func (m *Match) Step(dt time.Duration) {
	if m.closed {
		return
	}
	m.ctx.Clock.Advance(dt)
	m.ctx.Sched.Advance()
	for _, b := range m.bots {
		b.Think()
	}
	m.space.Step(dt)
	m.npcs.Update(dt)
	m.orch.Update()
	m.pickups()
}

// Done reports whether the match reached victory or defeat.
func (m *Match) Done() bool { return m.orch.Phase().Finished() }

func (m *Match) Context() *sim.Context            { return m.ctx }
func (m *Match) Orchestrator() *wave.Orchestrator { return m.orch }

func (m *Match) Characters() []*character.Character {
	return append([]*character.Character(nil), m.chars...)
}

func (m *Match) Enemies() []*npc.Enemy { return m.npcs.All() }

func (m *Match) Crates() []character.AmmoCrate {
	return append([]character.AmmoCrate(nil), m.crates...)
}

// Result reports the match as it stands.
func (m *Match) Result() Result {
	return Result{
		ID:       m.ID,
		Outcome:  m.orch.Phase(),
		Wave:     m.orch.Wave(),
		Elapsed:  m.ctx.Clock.Now(),
		Kills:    m.kills,
		Crates:   m.opened,
		Currency: m.currency,
	}
}

// Run steps the match by tick until it finishes, max simulated time has
// elapsed or ctx is cancelled. A max of 0 or less means no limit.
//
// Postcondition: Returns the result so far; the error is ctx.Err() when the
// run was cancelled.
func (m *Match) Run(ctx context.Context, tick, max time.Duration) (Result, error) {
	if tick <= 0 {
		panic("match.Match.Run: tick must be positive")
	}
	for !m.Done() {
		if err := ctx.Err(); err != nil {
			return m.Result(), err
		}
		if max > 0 && m.ctx.Clock.Now() >= max {
			m.logger.Warn("match hit its time limit", zap.Duration("max", max))
			break
		}
		m.Step(tick)
	}
	return m.Result(), nil
}

// Close destroys every actor and releases the Lua VM. It is idempotent.
func (m *Match) Close() {
	if m.closed {
		return
	}
	m.closed = true
	for _, s := range m.subs {
		s.Release()
	}
	m.subs = nil
	if m.orch != nil {
		m.orch.Close()
	}
	if m.npcs != nil {
		m.npcs.Clear()
	}
	for _, ch := range m.chars {
		ch.Actor().Destroy()
	}
	if m.scripts != nil {
		m.scripts.Close()
	}
}
