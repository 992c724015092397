// Package ai implements the per-enemy finite state machine and the target
// selection helpers its states share.
//
// A state is any value implementing State. States hold a non-owning reference
// to the enemy they drive and are discarded after Exit; no state value is
// reused across visits.
package ai

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/event"
)

// State is one node of an enemy state graph.
type State interface {
	Name() string
	// Enter runs once when the state becomes current.
	Enter()
	// Execute runs once per Machine.Update while the state is current. A
	// state that calls Machine.Change from Execute must return immediately
	// afterwards.
	Execute()
	// Exit runs once when the state stops being current and must undo any
	// state-local side effect Enter applied.
	Exit()
}

// Transition describes one state change. From is empty for the initial state.
type Transition struct {
	From string
	To   string
}

// Machine holds the single current State of one enemy.
//
// Invariant: exactly one state is current once Change has been called;
// Exit of the outgoing state completes before Enter of the incoming state.
//
// It is not safe for concurrent use; the caller must serialise access.
type Machine struct {
	owner       string
	current     State
	transitions event.Topic[Transition]
	logger      *zap.Logger
}

// NewMachine creates an empty Machine for the enemy identified by owner.
// A nil logger is replaced by a no-op logger.
func NewMachine(owner string, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{owner: owner, logger: logger}
}

// Current returns the current state, or nil before the first Change.
func (m *Machine) Current() State { return m.current }

// Transitions publishes every state change before the incoming state's Enter
// runs.
func (m *Machine) Transitions() *event.Topic[Transition] { return &m.transitions }

// Change exits the current state and enters next.
//
// Precondition: next must be non-nil.
func (m *Machine) Change(next State) {
	if next == nil {
		panic("ai.Machine.Change: next state must not be nil")
	}
	prev := m.current
	from := ""
	if prev != nil {
		from = prev.Name()
		prev.Exit()
	}
	m.current = next
	m.logger.Debug("enemy state transition",
		zap.String("enemy", m.owner),
		zap.String("from", from),
		zap.String("to", next.Name()),
	)
	m.transitions.Publish(Transition{From: from, To: next.Name()})
	next.Enter()
}

// Update executes the current state. It is a no-op before the first Change.
func (m *Machine) Update() {
	if m.current != nil {
		m.current.Execute()
	}
}

// Close exits the current state without entering another and releases every
// transition subscriber.
func (m *Machine) Close() {
	if m.current != nil {
		m.current.Exit()
		m.current = nil
	}
	m.transitions.Close()
}
