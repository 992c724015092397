package wave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/ai"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/condition"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/cory-johannsen/arena/internal/game/stats"
	"github.com/cory-johannsen/arena/internal/game/wave"
	"github.com/cory-johannsen/arena/internal/game/world"
	"github.com/cory-johannsen/arena/internal/testutil"
)

const tick = 100 * time.Millisecond

// statue never moves or attacks.
type statue struct{}

func (statue) Name() string { return "statue" }
func (statue) Enter()       {}
func (statue) Execute()     {}
func (statue) Exit()        {}

type fixture struct {
	*testutil.Harness
	t     *testing.T
	o     *wave.Orchestrator
	npcs  *npc.Manager
	chars []*character.Character
	logs  *observer.ObservedLogs

	started []wave.Started
	ended   []wave.Ended
	results []wave.Phase
}

func schedule() *wave.Schedule {
	return &wave.Schedule{
		PreRoll: 5 * time.Second,
		Players: wave.PlayerSchedule{SpawnDelay: time.Second, Stagger: 500 * time.Millisecond, LockedTime: time.Second},
		Waves: []wave.Wave{
			{
				TimeLimit: 10 * time.Second, DelayFailed: 2 * time.Second, DelaySucceeded: 4 * time.Second,
				SpawnInterval: 500 * time.Millisecond,
				Enemies:       []wave.Entry{{Enemy: "statue", Min: 2, Max: 2, Size: world.Small}},
			},
			{
				TimeLimit: 10 * time.Second, DelayFailed: 2 * time.Second, DelaySucceeded: 4 * time.Second,
				SpawnInterval: 500 * time.Millisecond,
				Enemies:       []wave.Entry{{Enemy: "statue", Min: 1, Max: 1, Size: world.Large}},
			},
		},
	}
}

func newFixture(t *testing.T, sch *wave.Schedule, players int, src dice.Source) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{Harness: testutil.NewHarness(t, nil, src), t: t, logs: logs}
	f.Ctx.Logger = zap.New(core)

	none := 0.0
	cat, err := ability.NewCatalog(condition.NewRegistry(), &ability.File{
		Weapons: []*ability.WeaponDef{
			{ID: "pistol", Slot: ability.SlotBase, Damage: "4", Range: 15, UsesPerSecond: 10,
				Magazine: 6, Magazines: ability.Unlimited, ReloadTime: time.Second},
		},
	})
	require.NoError(t, err)
	archetypes := npc.Archetypes()
	require.NoError(t, archetypes.Register("statue", func(*npc.Enemy) ai.State { return statue{} }))
	f.npcs, err = npc.NewManager(f.Ctx, cat, archetypes, &npc.Template{
		ID: "statue", Name: "Statue", Archetype: "statue",
		Stats: stats.Config{MaxHealth: 10, MovementSpeed: 1},
		Loot:  &npc.LootTable{AmmoCrateChance: &none},
	})
	require.NoError(t, err)

	cls := &character.Class{ID: "grunt", Name: "Grunt", Stats: stats.Config{MaxHealth: 50, MovementSpeed: 3}, BaseWeapon: "pistol"}
	for i := 0; i < players; i++ {
		c, err := character.Build(f.Ctx, cat, cls, "", geom.V(0, 0))
		require.NoError(t, err)
		f.chars = append(f.chars, c)
	}

	f.o = wave.New(f.Ctx, wave.Options{
		Schedule: sch,
		Layout:   f.Space.Layout(),
		Spawner:  f.npcs,
		Players:  f.Players,
		Enemies:  f.Enemies,
	})
	f.o.WaveStarted().Subscribe(func(s wave.Started) { f.started = append(f.started, s) })
	f.o.WaveEnded().Subscribe(func(e wave.Ended) { f.ended = append(f.ended, e) })
	f.o.Finished().Subscribe(func(p wave.Phase) { f.results = append(f.results, p) })
	t.Cleanup(f.o.Close)
	return f
}

func (f *fixture) start() {
	f.t.Helper()
	require.NoError(f.t, f.o.Start(f.chars))
}

func (f *fixture) advance(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += tick {
		f.Step(tick)
		f.o.Update()
	}
}

func (f *fixture) until(cond func() bool, limit time.Duration) {
	f.t.Helper()
	for elapsed := time.Duration(0); !cond(); elapsed += tick {
		require.Less(f.t, elapsed, limit, "condition not reached")
		f.Step(tick)
		f.o.Update()
	}
}

func (f *fixture) phase(p wave.Phase) func() bool {
	return func() bool { return f.o.Phase() == p }
}

func (f *fixture) killEnemies() {
	for _, e := range f.npcs.All() {
		e.Actor().Stats.ModifyHealth(-1000)
	}
}

func TestNew_PanicsOnMissingOption(t *testing.T) {
	h := testutil.NewHarness(t, nil, nil)
	assert.PanicsWithValue(t, "wave.New: ctx and every option must not be nil", func() {
		wave.New(h.Ctx, wave.Options{Schedule: schedule()})
	})
}

func TestStart_Errors(t *testing.T) {
	f := newFixture(t, schedule(), 0, nil)
	assert.ErrorContains(t, f.o.Start(nil), "no players")

	f = newFixture(t, schedule(), 5, nil)
	assert.ErrorContains(t, f.o.Start(f.chars), "5 players for 4 spawn points")
	assert.Equal(t, wave.Idle, f.o.Phase())
	assert.Zero(t, f.Players.Len())

	f = newFixture(t, schedule(), 1, nil)
	f.start()
	assert.ErrorContains(t, f.o.Start(f.chars), "already started")
}

func TestStart_PlayersSpawnHiddenAtDistinctPoints(t *testing.T) {
	f := newFixture(t, schedule(), 4, nil)
	f.start()

	assert.Equal(t, wave.PreRoll, f.o.Phase())
	assert.Equal(t, 4, f.Players.Len())
	seen := map[geom.Vec]bool{}
	for _, c := range f.chars {
		assert.True(t, c.Actor().Hidden)
		assert.False(t, c.CanMove())
		assert.Contains(t, f.Space.Layout().PlayerSpawns, c.Actor().Pos)
		seen[c.Actor().Pos] = true
	}
	assert.Len(t, seen, 4)
	assert.Empty(t, f.Players.Living())
}

func TestStart_RevealStaggerThenUnlock(t *testing.T) {
	f := newFixture(t, schedule(), 2, nil)
	f.start()
	first, second := f.chars[0], f.chars[1]

	f.advance(900 * time.Millisecond)
	assert.True(t, first.Actor().Hidden)

	f.advance(tick) // 1.0s
	assert.False(t, first.Actor().Hidden)
	assert.True(t, second.Actor().Hidden)

	f.advance(500 * time.Millisecond) // 1.5s
	assert.False(t, second.Actor().Hidden)
	assert.False(t, first.CanMove())

	f.advance(1400 * time.Millisecond) // 2.9s
	assert.False(t, second.CanMove())

	f.advance(tick) // 3.0s
	assert.True(t, first.CanMove())
	assert.True(t, second.CanMove())
}

func TestWave_RosterReleasedAtInterval(t *testing.T) {
	f := newFixture(t, schedule(), 1, nil)
	f.start()

	f.advance(5 * time.Second)
	require.Equal(t, wave.Spawning, f.o.Phase())
	assert.Equal(t, []wave.Started{{Wave: 1, Enemies: 2}}, f.started)
	assert.Zero(t, f.o.Spawned())

	f.advance(500 * time.Millisecond)
	assert.Equal(t, 1, f.o.Spawned())
	assert.Equal(t, wave.Spawning, f.o.Phase())

	f.advance(500 * time.Millisecond)
	assert.Equal(t, 2, f.o.Spawned())
	assert.Equal(t, 2, f.Enemies.Len())
	assert.Equal(t, wave.Active, f.o.Phase())
	for _, e := range f.npcs.All() {
		assert.Contains(t, f.Space.Layout().SpawnPoints(world.Small), e.Actor().Pos)
	}
}

func TestWave_SucceededUsesShortDelay(t *testing.T) {
	f := newFixture(t, schedule(), 1, nil)
	f.start()
	f.until(f.phase(wave.Active), 10*time.Second)

	f.killEnemies()
	assert.Zero(t, f.Enemies.Len())
	f.advance(tick)
	require.Equal(t, []wave.Ended{{Wave: 1, Succeeded: true}}, f.ended)
	assert.Equal(t, wave.Intermission, f.o.Phase())
	endedAt := f.Ctx.Sched.Now()

	f.until(f.phase(wave.Spawning), 10*time.Second)
	assert.Equal(t, 4*time.Second, f.Ctx.Sched.Now()-endedAt)
	assert.Equal(t, 2, f.o.Wave())
}

func TestWave_FailedStillWaitsForEveryEnemy(t *testing.T) {
	f := newFixture(t, schedule(), 1, nil)
	f.start()
	f.until(f.phase(wave.Active), 10*time.Second)
	activeAt := f.Ctx.Sched.Now()

	f.until(f.phase(wave.Resolution), 20*time.Second)
	assert.Equal(t, 10*time.Second, f.Ctx.Sched.Now()-activeAt)

	f.advance(30 * time.Second)
	assert.Equal(t, wave.Resolution, f.o.Phase())
	assert.Empty(t, f.ended)

	f.killEnemies()
	f.advance(tick)
	require.Equal(t, []wave.Ended{{Wave: 1, Succeeded: false}}, f.ended)
	endedAt := f.Ctx.Sched.Now()

	f.until(f.phase(wave.Spawning), 10*time.Second)
	assert.Equal(t, 2*time.Second, f.Ctx.Sched.Now()-endedAt)
}

func TestWave_VictoryAfterFinalWave(t *testing.T) {
	f := newFixture(t, schedule(), 1, nil)
	f.start()
	for i := 0; i < 2; i++ {
		f.until(f.phase(wave.Active), 20*time.Second)
		f.killEnemies()
		f.advance(tick)
	}

	assert.Equal(t, wave.Victory, f.o.Phase())
	assert.Equal(t, []wave.Phase{wave.Victory}, f.results)
	assert.Len(t, f.ended, 2)

	f.advance(10 * time.Second)
	assert.Len(t, f.started, 2)
	assert.Len(t, f.results, 1)
}

func TestWave_DefeatOnLastPlayerDeath(t *testing.T) {
	f := newFixture(t, schedule(), 2, nil)
	f.start()
	f.advance(500 * time.Millisecond)

	f.chars[0].Actor().Stats.ModifyHealth(-1000)
	assert.Equal(t, wave.PreRoll, f.o.Phase())

	f.chars[1].Actor().Stats.ModifyHealth(-1000)
	assert.Equal(t, wave.Defeat, f.o.Phase())
	assert.Equal(t, []wave.Phase{wave.Defeat}, f.results)

	f.advance(10 * time.Second)
	assert.Empty(t, f.started)
	assert.True(t, f.chars[1].Actor().Hidden)
	assert.Len(t, f.results, 1)
	entries := f.logs.FilterMessage("match finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "defeat", entries[0].ContextMap()["outcome"])
}

func TestWave_DefeatDuringWave(t *testing.T) {
	f := newFixture(t, schedule(), 1, nil)
	f.start()
	f.until(f.phase(wave.Active), 10*time.Second)

	f.chars[0].Actor().Stats.ModifyHealth(-1000)
	assert.Equal(t, wave.Defeat, f.o.Phase())
	f.killEnemies()
	f.advance(time.Second)
	assert.Empty(t, f.ended)
}

func TestWave_RespawnAtWaveEnd(t *testing.T) {
	f := newFixture(t, schedule(), 2, nil)
	f.start()
	f.until(f.phase(wave.Active), 10*time.Second)
	dead, alive := f.chars[0], f.chars[1]
	alive.Actor().Stats.ModifyHealth(-20)
	dead.Actor().Stats.ModifyHealth(-1000)
	require.True(t, dead.Dead())

	f.killEnemies()
	f.advance(tick)

	respawns := f.Space.Layout().RespawnPoints
	assert.False(t, dead.Dead())
	assert.Equal(t, 50, dead.Actor().Stats.Health())
	assert.Contains(t, respawns, dead.Actor().Pos)
	assert.Equal(t, 30, alive.Actor().Stats.Health())
	assert.Contains(t, respawns, alive.Actor().Pos)
}

func TestWave_SpawnFailuresAreSkipped(t *testing.T) {
	sch := schedule()
	sch.Waves[0].Enemies = append(sch.Waves[0].Enemies, wave.Entry{Enemy: "ghost", Min: 1, Max: 1, Size: world.Medium})
	f := newFixture(t, sch, 1, nil)
	f.start()
	f.until(f.phase(wave.Active), 10*time.Second)

	assert.Equal(t, []wave.Started{{Wave: 1, Enemies: 3}}, f.started)
	assert.Equal(t, 2, f.o.Spawned())
	assert.Equal(t, 2, f.o.Remaining())
	entries := f.logs.FilterMessage("enemy spawn failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "ghost", entries[0].ContextMap()["enemy"])
}

func TestWave_EmptyRosterSucceedsImmediately(t *testing.T) {
	sch := schedule()
	sch.Waves[0].Enemies = nil
	f := newFixture(t, sch, 1, nil)
	f.start()
	f.advance(5*time.Second + tick)

	assert.Equal(t, []wave.Ended{{Wave: 1, Succeeded: true}}, f.ended)
	assert.Equal(t, wave.Intermission, f.o.Phase())
}

func TestWave_RosterSizeWithinRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		min := rapid.IntRange(0, 4).Draw(rt, "min")
		max := rapid.IntRange(min, min+4).Draw(rt, "max")
		seed := rapid.Uint64().Draw(rt, "seed")

		sch := schedule()
		sch.Waves[0].Enemies = []wave.Entry{{Enemy: "statue", Min: min, Max: max, Size: world.Small}}
		f := newFixture(t, sch, 1, dice.NewSeededSource(seed))
		f.start()
		f.advance(5 * time.Second)
		for i := 0; i < 100 && f.o.Phase() == wave.Spawning; i++ {
			f.advance(tick)
		}

		n := f.started[0].Enemies
		assert.Equal(rt, n, f.o.Spawned())
		if max == min {
			assert.Equal(rt, min, n)
		} else {
			assert.GreaterOrEqual(rt, n, min)
			assert.Less(rt, n, max)
		}
	})
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "pre_roll", wave.PreRoll.String())
	assert.Equal(t, "resolution", wave.Resolution.String())
	assert.Equal(t, "Phase(42)", wave.Phase(42).String())
	assert.True(t, wave.Victory.Finished())
	assert.False(t, wave.Intermission.Finished())
}
