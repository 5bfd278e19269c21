package conversation

import (
	"sync"
	"testing"
)

func TestNewMachineStartsFinished(t *testing.T) {
	m := NewMachine(0)
	snap := m.Snapshot()
	if snap.State != StateFinished {
		t.Errorf("initial state = %s, want %s", snap.State, StateFinished)
	}
	if snap.Turns != 0 {
		t.Errorf("initial turns = %d, want 0", snap.Turns)
	}
	if snap.MaxTurns != DefaultMaxTurns {
		t.Errorf("maxTurns = %d, want default %d", snap.MaxTurns, DefaultMaxTurns)
	}
}

func TestResetStateUnconditional(t *testing.T) {
	m := NewMachine(5)
	m.SetState(StateConcluding)
	for i := 0; i < 3; i++ {
		m.CompleteTurn()
	}

	// A fresh detection overrides whatever was in progress.
	m.ResetState(StateEngaging)

	snap := m.Snapshot()
	if snap.State != StateEngaging {
		t.Errorf("state = %s, want %s", snap.State, StateEngaging)
	}
	if snap.Turns != 0 {
		t.Errorf("turns = %d, want 0 after reset", snap.Turns)
	}
}

func TestCompleteTurnMonotonic(t *testing.T) {
	m := NewMachine(3)
	m.ResetState(StateConversing)

	for want := 1; want <= 5; want++ {
		if got := m.CompleteTurn(); got != want {
			t.Fatalf("CompleteTurn = %d, want %d", got, want)
		}
	}

	// The machine records the overage but never transitions on its own.
	snap := m.Snapshot()
	if !snap.AtTurnLimit() {
		t.Error("expected turn limit reached")
	}
	if snap.State != StateConversing {
		t.Errorf("state = %s, machine must not transition at the limit", snap.State)
	}
}

func TestSetStateKeepsTurns(t *testing.T) {
	m := NewMachine(10)
	m.ResetState(StateEngaging)
	m.CompleteTurn()
	m.CompleteTurn()

	m.SetState(StateConversing)

	snap := m.Snapshot()
	if snap.Turns != 2 {
		t.Errorf("turns = %d, want 2 after SetState", snap.Turns)
	}
}

func TestConcurrentResets(t *testing.T) {
	m := NewMachine(10)

	var wg sync.WaitGroup
	states := []State{StateEngaging, StateConversing, StateConcluding, StateFinished}
	for i := 0; i < 100; i++ {
		wg.Add(2)
		s := states[i%len(states)]
		go func() {
			defer wg.Done()
			m.ResetState(s)
		}()
		go func() {
			defer wg.Done()
			m.CompleteTurn()
			_ = m.Snapshot()
		}()
	}
	wg.Wait()

	// The winner is nondeterministic but the state must be coherent.
	snap := m.Snapshot()
	valid := false
	for _, s := range states {
		if snap.State == s {
			valid = true
		}
	}
	if !valid {
		t.Errorf("state = %q, not a known state", snap.State)
	}
}
