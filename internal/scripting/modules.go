package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// RegisterModules defines the engine global in L with the log, dice,
// entity and effect tables.
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "entity", m.entityModule(L))
	L.SetField(engine, "effect", m.effectModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	logger := m.logger.Named("lua")
	level := func(write func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			write(L.CheckString(1))
			return 0
		}
	}
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"debug": level(logger.Debug),
		"info":  level(logger.Info),
		"warn":  level(logger.Warn),
		"error": level(logger.Error),
	})
}

// engine.dice.roll(expr) returns {total, dice, modifier}; dice is the sum of
// the rolled dice before the modifier.
func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"roll": func(L *lua.LState) int {
			expr, err := dice.Parse(L.CheckString(1))
			if err != nil {
				L.RaiseError("engine.dice.roll: %s", err.Error())
				return 0
			}
			r := dice.Roll(expr, m.roller.Source())
			sum := 0
			for _, d := range r.Dice {
				sum += d
			}
			t := L.NewTable()
			L.SetField(t, "total", lua.LNumber(r.Total()))
			L.SetField(t, "dice", lua.LNumber(sum))
			L.SetField(t, "modifier", lua.LNumber(r.Modifier))
			L.Push(t)
			return 1
		},
	})
}

func (m *Manager) entityModule(L *lua.LState) *lua.LTable {
	actor := func(L *lua.LState) *ActorInfo {
		id := L.CheckString(1)
		if m.GetActor == nil {
			return nil
		}
		return m.GetActor(id)
	}
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get_hp": func(L *lua.LState) int {
			if a := actor(L); a != nil {
				L.Push(lua.LNumber(a.Health))
			} else {
				L.Push(lua.LNil)
			}
			return 1
		},
		"get_name": func(L *lua.LState) int {
			if a := actor(L); a != nil {
				L.Push(lua.LString(a.Name))
			} else {
				L.Push(lua.LNil)
			}
			return 1
		},
		"get": func(L *lua.LState) int {
			a := actor(L)
			if a == nil {
				L.Push(lua.LNil)
				return 1
			}
			effects := L.NewTable()
			for _, e := range a.Effects {
				effects.Append(lua.LString(e))
			}
			t := L.NewTable()
			L.SetField(t, "id", lua.LString(a.ID))
			L.SetField(t, "name", lua.LString(a.Name))
			L.SetField(t, "kind", lua.LString(a.Kind))
			L.SetField(t, "hp", lua.LNumber(a.Health))
			L.SetField(t, "max_hp", lua.LNumber(a.MaxHealth))
			L.SetField(t, "shield", lua.LNumber(a.Shield))
			L.SetField(t, "effects", effects)
			L.Push(t)
			return 1
		},
		"damage": func(L *lua.LState) int {
			id, amount := L.CheckString(1), L.CheckInt(2)
			if m.Damage == nil {
				L.Push(lua.LFalse)
				return 1
			}
			if err := m.Damage(id, amount); err != nil {
				m.logger.Debug("engine.entity.damage failed", zap.String("actor", id), zap.Error(err))
				L.Push(lua.LFalse)
				return 1
			}
			L.Push(lua.LTrue)
			return 1
		},
		"cue": func(L *lua.LState) int {
			id, cue := L.CheckString(1), L.CheckString(2)
			if m.PlayCue != nil {
				m.PlayCue(id, cue)
			}
			return 0
		},
	})
}

func (m *Manager) effectModule(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"apply": func(L *lua.LState) int {
			id, effectID := L.CheckString(1), L.CheckString(2)
			if m.ApplyEffect == nil {
				L.Push(lua.LFalse)
				return 1
			}
			if err := m.ApplyEffect(id, effectID); err != nil {
				m.logger.Debug("engine.effect.apply failed",
					zap.String("actor", id),
					zap.String("effect", effectID),
					zap.Error(err),
				)
				L.Push(lua.LFalse)
				return 1
			}
			L.Push(lua.LTrue)
			return 1
		},
	})
}
