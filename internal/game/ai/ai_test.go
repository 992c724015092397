package ai_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/ai"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/stats"
	"github.com/cory-johannsen/arena/internal/testutil"
)

// recorder is a State that appends its lifecycle calls to a shared log.
type recorder struct {
	name    string
	log     *[]string
	onEnter func()
	onExec  func()
}

func (r *recorder) Name() string { return r.name }
func (r *recorder) Enter() {
	*r.log = append(*r.log, "enter:"+r.name)
	if r.onEnter != nil {
		r.onEnter()
	}
}
func (r *recorder) Execute() {
	*r.log = append(*r.log, "exec:"+r.name)
	if r.onExec != nil {
		r.onExec()
	}
}
func (r *recorder) Exit() { *r.log = append(*r.log, "exit:"+r.name) }

func TestMachine_ExitPrecedesEnter(t *testing.T) {
	var log []string
	m := ai.NewMachine("e1", nil)
	a := &recorder{name: "a", log: &log}
	b := &recorder{name: "b", log: &log}

	m.Change(a)
	m.Change(b)
	assert.Equal(t, []string{"enter:a", "exit:a", "enter:b"}, log)
	assert.Same(t, b, m.Current())
}

func TestMachine_ChangeInsideExecuteAppliesImmediately(t *testing.T) {
	var log []string
	m := ai.NewMachine("e1", nil)
	b := &recorder{name: "b", log: &log}
	a := &recorder{name: "a", log: &log}
	a.onExec = func() { m.Change(b) }

	m.Change(a)
	m.Update()
	m.Update()
	assert.Equal(t, []string{"enter:a", "exec:a", "exit:a", "enter:b", "exec:b"}, log)
}

func TestMachine_TransitionsPublishedInOrder(t *testing.T) {
	var log []string
	m := ai.NewMachine("e1", nil)
	c := &recorder{name: "c", log: &log}
	b := &recorder{name: "b", log: &log}
	b.onEnter = func() { m.Change(c) }
	a := &recorder{name: "a", log: &log}

	var got []ai.Transition
	m.Transitions().Subscribe(func(tr ai.Transition) { got = append(got, tr) })
	m.Change(a)
	m.Change(b)
	assert.Equal(t, []ai.Transition{{From: "", To: "a"}, {From: "a", To: "b"}, {From: "b", To: "c"}}, got)
	assert.Same(t, c, m.Current())
}

func TestMachine_UpdateBeforeChangeIsNoop(t *testing.T) {
	m := ai.NewMachine("e1", nil)
	assert.NotPanics(t, m.Update)
	assert.Nil(t, m.Current())
	assert.Panics(t, func() { m.Change(nil) })
}

func TestMachine_Close_ExitsCurrent(t *testing.T) {
	var log []string
	m := ai.NewMachine("e1", nil)
	m.Change(&recorder{name: "a", log: &log})
	m.Close()
	assert.Equal(t, []string{"enter:a", "exit:a"}, log)
	assert.Nil(t, m.Current())
}

func TestMachine_LogsTransitionsAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := ai.NewMachine("e1", zap.New(core))
	var log []string
	m.Change(&recorder{name: "wandering", log: &log})
	entries := logs.FilterMessage("enemy state transition").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "wandering", entries[0].ContextMap()["to"])
}

func TestClosest_NearestLiving(t *testing.T) {
	h := testutil.NewHarness(t, nil, nil)
	far := h.Player("far", testutil.Stats(10, 1), geom.V(10, 0))
	near := h.Player("near", testutil.Stats(10, 1), geom.V(3, 0))
	got, d := ai.Closest(geom.V(0, 0), []*entity.Actor{far, near})
	assert.Same(t, near, got)
	assert.InDelta(t, 9, d, 1e-9)

	near.Stats.ModifyHealth(-10)
	got, _ = ai.Closest(geom.V(0, 0), []*entity.Actor{far, near})
	assert.Same(t, far, got, "dead candidates are skipped")
}

func TestClosest_FirstWinsWithinEpsilon(t *testing.T) {
	h := testutil.NewHarness(t, nil, nil)
	first := h.Player("first", testutil.Stats(10, 1), geom.V(2, 0))
	second := h.Player("second", testutil.Stats(10, 1), geom.V(0, 1.98))
	got, _ := ai.Closest(geom.V(0, 0), []*entity.Actor{first, second})
	assert.Same(t, first, got)

	clearly := h.Player("clearly", testutil.Stats(10, 1), geom.V(0, 1.5))
	got, _ = ai.Closest(geom.V(0, 0), []*entity.Actor{first, clearly})
	assert.Same(t, clearly, got)
}

func TestClosest_NoneAlive(t *testing.T) {
	h := testutil.NewHarness(t, nil, nil)
	p := h.Player("p", testutil.Stats(10, 1), geom.V(1, 0))
	p.Stats.ModifyHealth(-10)
	got, d := ai.Closest(geom.V(0, 0), []*entity.Actor{p})
	assert.Nil(t, got)
	assert.True(t, math.IsInf(d, 1))

	got, _ = ai.Closest(geom.V(0, 0), nil)
	assert.Nil(t, got)
}

func TestPropertyInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := rapid.Float64Range(0, 50).Draw(rt, "range")
		d := rapid.Float64Range(0, 2500).Draw(rt, "distSq")
		if d <= r*r {
			assert.True(rt, ai.InRange(d, r))
		}
		if d <= stats.MinAttackRange*stats.MinAttackRange {
			assert.True(rt, ai.InRange(d, 0))
		}
		if d > r*r && d > stats.MinAttackRange*stats.MinAttackRange {
			assert.False(rt, ai.InRange(d, r))
		}
	})
}

func TestInRangeOf_FiltersByRangeAndLife(t *testing.T) {
	h := testutil.NewHarness(t, nil, nil)
	a := h.Player("a", testutil.Stats(10, 1), geom.V(1, 0))
	b := h.Player("b", testutil.Stats(10, 1), geom.V(4, 0))
	c := h.Player("c", testutil.Stats(10, 1), geom.V(20, 0))
	b.Hidden = true
	got := ai.InRangeOf(geom.V(0, 0), []*entity.Actor{a, b, c}, 5)
	assert.Equal(t, []*entity.Actor{a}, got)
}

func TestMostDamagedAndHealthiest(t *testing.T) {
	h := testutil.NewHarness(t, nil, nil)
	a := h.Player("a", testutil.Stats(10, 1), geom.V(1, 0))
	b := h.Player("b", testutil.Stats(10, 1), geom.V(2, 0))
	c := h.Player("c", testutil.Stats(10, 1), geom.V(3, 0))
	b.Stats.ModifyHealth(-4)
	c.Stats.ModifyHealth(-10)
	all := []*entity.Actor{a, b, c}
	assert.Same(t, b, ai.MostDamaged(all))
	assert.Same(t, a, ai.Healthiest(all))
	assert.Nil(t, ai.MostDamaged([]*entity.Actor{c}))
}

func TestCanSee(t *testing.T) {
	h := testutil.NewHarness(t, nil, nil)
	e := h.Enemy("e", testutil.Stats(10, 1), geom.V(0, 0))
	e.Facing = geom.V(1, 0)
	p := h.Player("p", testutil.Stats(10, 1), geom.V(5, 0))

	got, ok := ai.CanSee(h.Space, e, 10, entity.Player)
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = ai.CanSee(h.Space, e, 3, entity.Player)
	assert.False(t, ok, "target beyond length")

	e.Facing = geom.V(0, 1)
	_, ok = ai.CanSee(h.Space, e, 10, entity.Player)
	assert.False(t, ok)
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := ai.NewRegistry[string]()
	var log []string
	require.NoError(t, r.Register("frogman", func(owner string) ai.State {
		return &recorder{name: owner, log: &log}
	}))
	assert.Error(t, r.Register("frogman", func(string) ai.State { return nil }))
	assert.Error(t, r.Register("", nil))

	f, ok := r.Initial("frogman")
	require.True(t, ok)
	assert.Equal(t, "e1", f("e1").Name())

	_, ok = r.Initial("missing")
	assert.False(t, ok)

	require.NoError(t, r.Register("cricket", func(string) ai.State { return nil }))
	assert.Equal(t, []string{"cricket", "frogman"}, r.Names())
}
