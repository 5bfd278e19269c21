package plugins

import (
	"log/slog"
	"time"

	"github.com/quentin-h/embra/internal/actions"
	"github.com/quentin-h/embra/internal/events"
)

const simulatorIdleInterval = 500 * time.Millisecond

// logSimulator renders dispatched batches to the structured log. It is the
// simplest possible render target and the default in headless setups.
type logSimulator struct {
	base
}

func newLogSimulator(_ map[string]any, _ Deps) (Simulator, error) {
	return &logSimulator{base: base{name: "log"}}, nil
}

func (s *logSimulator) Run() error {
	s.pace(simulatorIdleInterval)
	return nil
}

func (s *logSimulator) Stop() error { return nil }

func (s *logSimulator) Sim(batch []actions.Action) error {
	for _, a := range batch {
		slog.Info("simulated action", "simulator", s.Name(), "type", a.Type, "arguments", a.Arguments)
	}
	return nil
}

// broadcastSimulator republishes dispatched batches onto the event bus so
// gateway websocket clients can render them live.
type broadcastSimulator struct {
	base
	bus *events.Bus
}

func newBroadcastSimulator(_ map[string]any, deps Deps) (Simulator, error) {
	return &broadcastSimulator{
		base: base{name: "broadcast"},
		bus:  deps.Bus,
	}, nil
}

func (s *broadcastSimulator) Run() error {
	s.pace(simulatorIdleInterval)
	return nil
}

func (s *broadcastSimulator) Stop() error { return nil }

func (s *broadcastSimulator) Sim(batch []actions.Action) error {
	if s.bus == nil {
		return nil
	}
	for _, a := range batch {
		s.bus.Publish(events.New(events.EventActionDispatched, events.SourceSimulator, map[string]any{
			"simulator": s.Name(),
			"type":      a.Type,
			"arguments": a.Arguments,
		}))
	}
	return nil
}
