package condition

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/sched"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// ScriptCaller invokes named Lua hooks for scripted effects.
type ScriptCaller interface {
	CallHook(hook string, args ...lua.LValue) (lua.LValue, error)
}

// CueFunc toggles a named presentation cue on the owning entity.
type CueFunc func(cue string, on bool)

// State is the lifecycle state of an Active effect.
type State int

const (
	// Running effects tick down on their interval.
	Running State = iota
	// Expired effects have been removed from their Set and never tick again.
	Expired
)

// Active is one status effect instance attached to a Set.
type Active struct {
	Blueprint *Blueprint

	set       *Set
	remaining int
	state     State
	handle    *sched.Handle
}

// Remaining returns the ticks left before expiry.
func (a *Active) Remaining() int { return a.remaining }

// State returns the lifecycle state.
func (a *Active) State() State { return a.state }

// Option configures a Set.
type Option func(*Set)

// WithCues routes blueprint cues to fn.
func WithCues(fn CueFunc) Option { return func(s *Set) { s.cue = fn } }

// WithScripts enables Lua hooks on blueprints that name them.
func WithScripts(sc ScriptCaller) Option { return func(s *Set) { s.scripts = sc } }

// WithLogger sets the logger used for hook failures and expiry tracing.
func WithLogger(l *zap.Logger) Option { return func(s *Set) { s.logger = l } }

// Set is the active-effect set of one entity.
//
// Invariant: at most one Active per Blueprint ID; every Active in the set is
// Running.
//
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	owner   string
	block   *stats.Block
	sched   *sched.Scheduler
	cue     CueFunc
	scripts ScriptCaller
	logger  *zap.Logger

	order  []*Active
	byID   map[string]*Active
	closed bool
}

// NewSet creates an empty Set for the entity identified by owner.
//
// Precondition: block and s must be non-nil.
func NewSet(owner string, block *stats.Block, s *sched.Scheduler, opts ...Option) *Set {
	if block == nil {
		panic("condition.NewSet: block must not be nil")
	}
	if s == nil {
		panic("condition.NewSet: scheduler must not be nil")
	}
	set := &Set{
		owner:  owner,
		block:  block,
		sched:  s,
		logger: zap.NewNop(),
		byID:   make(map[string]*Active),
	}
	for _, o := range opts {
		o(set)
	}
	return set
}

// Apply attaches bp to the owner. If an effect with the same blueprint ID is
// already attached, its remaining ticks reset to bp.MaxTicks and it is
// returned with created == false.
//
// Postcondition: Has(bp.ID) unless the set is closed or the owner is dead,
// in which case Apply is a no-op returning (nil, false).
func (s *Set) Apply(bp *Blueprint) (active *Active, created bool) {
	if s.closed || s.block.Dead() || bp == nil {
		return nil, false
	}
	if existing, ok := s.byID[bp.ID]; ok {
		existing.remaining = bp.MaxTicks
		return existing, false
	}

	a := &Active{Blueprint: bp, set: s, remaining: bp.MaxTicks}
	s.byID[bp.ID] = a
	s.order = append(s.order, a)

	if bp.ChangesSpeed() {
		s.block.ModifyMovementSpeed(s.block.BaseMovementSpeed() * bp.SpeedFactor)
	}
	s.toggle(bp.Cue, true)
	s.hook(bp.LuaOnApply, a)

	a.handle = s.sched.Every(bp.Interval(), func() bool { return s.tick(a) })
	return a, true
}

func (s *Set) tick(a *Active) bool {
	if !s.attached(a) {
		return false
	}
	bp := a.Blueprint
	if bp.Damage != 0 {
		s.block.ModifyHealth(-bp.Damage)
	}
	// The damage may have killed the owner and torn the set down.
	if !s.attached(a) {
		return false
	}
	s.hook(bp.LuaOnTick, a)

	a.remaining--
	if a.remaining > 0 {
		return true
	}
	s.expire(a)
	return false
}

func (s *Set) attached(a *Active) bool {
	return !s.closed && a.state == Running && s.byID[a.Blueprint.ID] == a
}

func (s *Set) expire(a *Active) {
	a.state = Expired
	a.handle.Cancel()
	s.detach(a)

	bp := a.Blueprint
	if bp.ChangesSpeed() && !s.block.Dead() {
		s.block.ResetMovementSpeed()
	}
	s.toggle(bp.Cue, false)
	s.hook(bp.LuaOnExpire, a)
	s.logger.Debug("status effect expired", zap.String("owner", s.owner), zap.String("effect", bp.ID))
}

func (s *Set) detach(a *Active) {
	delete(s.byID, a.Blueprint.ID)
	for i, o := range s.order {
		if o == a {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Remove expires the effect with id early, restoring any speed it changed.
// No-op if absent.
func (s *Set) Remove(id string) {
	if a, ok := s.byID[id]; ok {
		s.expire(a)
	}
}

// Clear cancels every effect without further stat mutation and closes the
// set. Used when the owner is destroyed; later Apply calls are no-ops.
func (s *Set) Clear() {
	for _, a := range s.order {
		a.state = Expired
		a.handle.Cancel()
	}
	s.order = nil
	s.byID = make(map[string]*Active)
	s.closed = true
}

// Reset cancels every effect and turns its cue off without further stat
// mutation. Unlike Clear the set stays open for later Apply calls.
func (s *Set) Reset() {
	for _, a := range s.order {
		a.state = Expired
		a.handle.Cancel()
		s.toggle(a.Blueprint.Cue, false)
	}
	s.order = nil
	s.byID = make(map[string]*Active)
}

// Has reports whether an effect with id is attached.
func (s *Set) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns the attached effect with id.
func (s *Set) Get(id string) (*Active, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Remaining returns the ticks left on id, or 0 if absent.
func (s *Set) Remaining(id string) int {
	if a, ok := s.byID[id]; ok {
		return a.remaining
	}
	return 0
}

// All returns the attached effects in attach order. The slice is a copy; the
// Active values are shared and must not be modified.
func (s *Set) All() []*Active {
	return append([]*Active(nil), s.order...)
}

// Len returns the number of attached effects.
func (s *Set) Len() int { return len(s.order) }

func (s *Set) toggle(cue string, on bool) {
	if cue == "" || s.cue == nil {
		return
	}
	s.cue(cue, on)
}

func (s *Set) hook(name string, a *Active) {
	if name == "" || s.scripts == nil {
		return
	}
	_, err := s.scripts.CallHook(name,
		lua.LString(s.owner),
		lua.LString(a.Blueprint.ID),
		lua.LNumber(a.remaining),
	)
	if err != nil {
		s.logger.Warn("status effect hook failed",
			zap.String("hook", name),
			zap.String("effect", a.Blueprint.ID),
			zap.Error(err),
		)
	}
}
