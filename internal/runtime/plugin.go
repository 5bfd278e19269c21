// Package runtime contains the orchestration core of the embra daemon: the
// plugin contract and the bounded worker-pool orchestrator that schedules
// background and simulator plugins.
package runtime

import (
	"sync"
	"time"
)

// Plugin is a background or simulator unit scheduled by the Orchestrator.
// Run is invoked repeatedly until the shared stop signal is set; it may block
// (polling hardware, waiting on a subscription) but should return periodically
// so the loop can observe shutdown. Stop releases resources and may fail;
// failures are logged by the orchestrator, never propagated.
type Plugin interface {
	Name() string
	Run() error
	Stop() error
	SetStopSignal(sig *StopSignal)
}

// StopSignal is a monotonic broadcast flag shared by every plugin of one
// orchestrator generation. It is set exactly once and never cleared; setting
// is immediately visible to all goroutines via the closed channel.
type StopSignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewStopSignal returns an unset stop signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{ch: make(chan struct{})}
}

// Set marks the signal. Safe to call any number of times from any goroutine.
func (s *StopSignal) Set() {
	s.once.Do(func() { close(s.ch) })
}

// IsSet reports whether the signal has been set.
func (s *StopSignal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the signal is set.
func (s *StopSignal) Done() <-chan struct{} {
	return s.ch
}

// Wait blocks until the signal is set or d elapses.
// Returns true if the signal was set.
func (s *StopSignal) Wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ch:
		return true
	case <-t.C:
		return false
	}
}
