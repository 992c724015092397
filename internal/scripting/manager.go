package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// ActorInfo is a snapshot of an actor passed to Lua.
type ActorInfo struct {
	ID        string
	Name      string
	Kind      string
	Health    int
	MaxHealth int
	Shield    int
	Effects   []string
}

// Manager owns a match's Lua VM and dispatches hooks into it.
//
// It is not safe for concurrent use; the caller must serialise access. A
// match calls it from its simulation goroutine only.
type Manager struct {
	L      *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetActor    func(id string) *ActorInfo
	ApplyEffect func(id, effectID string) error
	Damage      func(id string, amount int) error
	PlayCue     func(id, cue string)
}

// NewManager creates a Manager with a sandboxed VM and the engine.* modules
// registered. A limit of 0 or less uses DefaultInstructionLimit.
//
// Precondition: roller must be non-nil. A nil logger disables logging.
func NewManager(roller *dice.Roller, logger *zap.Logger, limit int) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	m := &Manager{
		L:      NewSandboxedState(),
		limit:  limit,
		roller: roller,
		logger: logger,
	}
	m.RegisterModules(m.L)
	return m
}

// LoadDir executes every *.lua file in dir in lexicographic order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns an error naming the first file that fails to load.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("scripting: reading %q: %w", path, err)
		}
		if err := m.Load(filepath.Base(path), string(src)); err != nil {
			return err
		}
	}
	return nil
}

// Load executes src under the instruction budget. name labels errors.
func (m *Manager) Load(name, src string) error {
	if m.L == nil {
		return fmt.Errorf("scripting: loading %q: manager closed", name)
	}
	done := budget(m.L, m.limit)
	defer done()
	if err := m.L.DoString(src); err != nil {
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	return nil
}

// CallHook calls the Lua global function hook with args. Returns (LNil, nil)
// when the hook is not defined or the manager is closed. Lua runtime errors,
// including an exhausted instruction budget, are logged at Warn level and
// never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	if m.L == nil {
		return lua.LNil, nil
	}
	fn := m.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, nil
	}

	done := budget(m.L, m.limit)
	defer done()
	top := m.L.GetTop()
	if err := m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.L.SetTop(top)
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// Close releases the VM. Further calls are no-ops.
func (m *Manager) Close() {
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}
