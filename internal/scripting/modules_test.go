package scripting_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/arena/internal/scripting"
)

func TestEngineLog_WritesAtEachLevel(t *testing.T) {
	m, logs := newManager(t, 0)
	require.NoError(t, m.Load("log", `
		engine.log.debug("d")
		engine.log.info("i")
		engine.log.warn("w")
		engine.log.error("e")
	`))

	want := map[string]zapcore.Level{
		"d": zapcore.DebugLevel,
		"i": zapcore.InfoLevel,
		"w": zapcore.WarnLevel,
		"e": zapcore.ErrorLevel,
	}
	for msg, level := range want {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		assert.Equal(t, level, entries[0].Level, msg)
		assert.Equal(t, "lua", entries[0].LoggerName, msg)
	}
}

func TestEngineDice_Roll(t *testing.T) {
	// Fixed 2 and 4 on a d6 become 3 and 5.
	m, _ := newManager(t, 0, 2, 4)
	require.NoError(t, m.Load("dice", `
		local r = engine.dice.roll("2d6+3")
		total, rolled, modifier = r.total, r.dice, r.modifier
	`))

	assert.Equal(t, lua.LNumber(11), m.L.GetGlobal("total"))
	assert.Equal(t, lua.LNumber(8), m.L.GetGlobal("rolled"))
	assert.Equal(t, lua.LNumber(3), m.L.GetGlobal("modifier"))
}

func TestEngineDice_RollBadExpressionRaises(t *testing.T) {
	m, _ := newManager(t, 0)
	err := m.Load("dice", `engine.dice.roll("banana")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.dice.roll")
}

func TestEngineEntity_Get(t *testing.T) {
	m, _ := newManager(t, 0)
	m.GetActor = func(id string) *scripting.ActorInfo {
		if id != "p1" {
			return nil
		}
		return &scripting.ActorInfo{ID: "p1", Name: "Assault", Kind: "player", Health: 40, MaxHealth: 100, Shield: 5, Effects: []string{"burning"}}
	}
	require.NoError(t, m.Load("entity", `
		hp = engine.entity.get_hp("p1")
		name = engine.entity.get_name("p1")
		missing = engine.entity.get_hp("nobody")
		local a = engine.entity.get("p1")
		summary = a.kind .. "/" .. a.max_hp .. "/" .. a.shield .. "/" .. a.effects[1]
		no_actor = engine.entity.get("nobody") == nil
	`))

	assert.Equal(t, lua.LNumber(40), m.L.GetGlobal("hp"))
	assert.Equal(t, "Assault", m.L.GetGlobal("name").String())
	assert.Equal(t, lua.LNil, m.L.GetGlobal("missing"))
	assert.Equal(t, "player/100/5/burning", m.L.GetGlobal("summary").String())
	assert.Equal(t, lua.LTrue, m.L.GetGlobal("no_actor"))
}

func TestEngineEntity_WithoutCallbacks(t *testing.T) {
	m, _ := newManager(t, 0)
	require.NoError(t, m.Load("entity", `
		hp = engine.entity.get_hp("p1")
		hit = engine.entity.damage("p1", 5)
		applied = engine.effect.apply("p1", "burning")
		engine.entity.cue("p1", "sparks")
	`))

	assert.Equal(t, lua.LNil, m.L.GetGlobal("hp"))
	assert.Equal(t, lua.LFalse, m.L.GetGlobal("hit"))
	assert.Equal(t, lua.LFalse, m.L.GetGlobal("applied"))
}

func TestEngineEntity_DamageAndEffects(t *testing.T) {
	m, _ := newManager(t, 0)
	damage := map[string]int{}
	var applied []string
	var cues []string
	m.Damage = func(id string, amount int) error {
		if id == "ghost" {
			return errors.New("no such actor")
		}
		damage[id] += amount
		return nil
	}
	m.ApplyEffect = func(id, effectID string) error {
		applied = append(applied, id+":"+effectID)
		return nil
	}
	m.PlayCue = func(id, cue string) { cues = append(cues, id+":"+cue) }

	require.NoError(t, m.Load("entity", `
		ok = engine.entity.damage("e1", 6)
		ghost = engine.entity.damage("ghost", 1)
		spread = engine.effect.apply("e2", "burning")
		engine.entity.cue("e1", "sparks")
	`))

	assert.Equal(t, lua.LTrue, m.L.GetGlobal("ok"))
	assert.Equal(t, lua.LFalse, m.L.GetGlobal("ghost"))
	assert.Equal(t, lua.LTrue, m.L.GetGlobal("spread"))
	assert.Equal(t, map[string]int{"e1": 6}, damage)
	assert.Equal(t, []string{"e2:burning"}, applied)
	assert.Equal(t, []string{"e1:sparks"}, cues)
}
