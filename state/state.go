package state

import (
	"errors"
	"sync"
)

// Phase is the lifecycle position of one connection's session.
type Phase int

const (
	// Connected: socket open, no room joined yet.
	Connected Phase = iota
	// InGame: an explicit joinGame was accepted.
	InGame
	// Terminated: removed from its room; the socket may linger briefly.
	// There is no transition out of Terminated.
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Connected:
		return "connected"
	case InGame:
		return "in_game"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// ErrTransitionNotAllowed is returned when a phase transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Machine guards a session's lifecycle with an explicit transition table.
// Duplicate joinGame events and events arriving after termination are
// rejected here rather than by ad-hoc checks in every handler.
type Machine struct {
	current     Phase
	transitions map[Phase]map[Phase]bool
	mutex       sync.RWMutex
}

// NewSessionMachine creates a machine in the Connected phase with the
// standard session transition table.
func NewSessionMachine() *Machine {
	return &Machine{
		current: Connected,
		transitions: map[Phase]map[Phase]bool{
			Connected: {
				InGame:     true,
				Terminated: true, // disconnect before ever joining
			},
			InGame: {
				Terminated: true,
			},
		},
	}
}

func (m *Machine) Current() Phase {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

func (m *Machine) Is(p Phase) bool {
	return m.Current() == p
}

// Transition moves to the target phase if the table allows it.
func (m *Machine) Transition(to Phase) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	allowed, exists := m.transitions[m.current]
	if !exists || !allowed[to] {
		return ErrTransitionNotAllowed
	}
	m.current = to
	return nil
}
