// Package conversation tracks one greeting/conversation episode shared
// between background plugins and hook callbacks.
package conversation

import (
	"log/slog"
	"sync"
)

// State is the phase of a greeting episode.
type State string

const (
	// StateEngaging means a person was detected and the greeting should begin.
	StateEngaging State = "engaging"
	// StateConversing means active dialogue turns are in progress.
	StateConversing State = "conversing"
	// StateConcluding means the conversation is winding down.
	StateConcluding State = "concluding"
	// StateFinished means no episode is active.
	StateFinished State = "finished"
)

// DefaultMaxTurns bounds an episode when the config does not say otherwise.
const DefaultMaxTurns = 10

// Snapshot is a consistent multi-field view of the machine, taken under the
// machine's lock so callers never observe a torn state.
type Snapshot struct {
	State    State `json:"state"`
	Turns    int   `json:"turns"`
	MaxTurns int   `json:"max_turns"`
}

// AtTurnLimit reports whether the episode has reached its turn budget.
// The machine itself never acts on this; hook callbacks do.
func (s Snapshot) AtTurnLimit() bool {
	return s.Turns >= s.MaxTurns
}

// Machine is the conversation state machine. Exactly one instance is owned
// by the running runtime and passed by reference to every consumer; it is
// mutated concurrently by the background pool and asynchronous hooks.
type Machine struct {
	mu       sync.Mutex
	state    State
	turns    int
	maxTurns int
}

// NewMachine returns an idle machine (Finished, zero turns).
func NewMachine(maxTurns int) *Machine {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Machine{state: StateFinished, maxTurns: maxTurns}
}

// ResetState unconditionally overwrites the current state and resets the
// turn counter. A fresh person detection always restarts the flow, with
// priority over whatever episode was in progress.
func (m *Machine) ResetState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.turns = 0
	m.mu.Unlock()

	if prev != s {
		slog.Info("conversation state reset", "from", prev, "to", s)
	}
}

// SetState moves to s without touching the turn counter.
func (m *Machine) SetState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// CompleteTurn records one finished dialogue turn and returns the new count.
// The counter is monotonically non-decreasing within an episode.
func (m *Machine) CompleteTurn() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns++
	return m.turns
}

// State returns the current state only. Suitable for logging and
// diagnostics; decisions spanning the counters must use Snapshot.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a consistent view of all fields.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{State: m.state, Turns: m.turns, MaxTurns: m.maxTurns}
}
