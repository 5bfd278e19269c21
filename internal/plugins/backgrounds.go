package plugins

import (
	"log/slog"
	"time"

	"github.com/quentin-h/embra/internal/conversation"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/runtime"
)

const backgroundPollInterval = 250 * time.Millisecond

// approachingPerson watches the bus for person detections and restarts the
// conversation machine at ENGAGING whenever someone new approaches. It is
// the standard way a detection pipeline drives conversation onset.
type approachingPerson struct {
	base
	conv        *conversation.Machine
	bus         *events.Bus
	unsubscribe func()
}

func newApproachingPerson(_ map[string]any, deps Deps) (runtime.Plugin, error) {
	return &approachingPerson{
		base: base{name: "approaching_person"},
		conv: deps.Conversation,
		bus:  deps.Bus,
	}, nil
}

func (p *approachingPerson) Run() error {
	if p.unsubscribe == nil && p.bus != nil {
		p.unsubscribe = p.bus.Subscribe(p.onDetection, events.EventPersonDetected)
	}
	p.pace(backgroundPollInterval)
	return nil
}

func (p *approachingPerson) onDetection(e events.Event) {
	if p.stopped() || p.conv == nil {
		return
	}
	p.conv.ResetState(conversation.StateEngaging)
	slog.Info("person approaching, conversation engaged", "event", e.ID)
}

func (p *approachingPerson) Stop() error {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	return nil
}

// busProbe periodically publishes an input.sample event so downstream
// consumers (gateway clients, tests) can observe liveness of the loop.
type busProbe struct {
	base
	bus      *events.Bus
	interval time.Duration
}

func newBusProbe(cfg map[string]any, deps Deps) (runtime.Plugin, error) {
	interval := 5 * time.Second
	if v, ok := cfg["interval_seconds"].(float64); ok && v > 0 {
		interval = time.Duration(v * float64(time.Second))
	}
	return &busProbe{
		base:     base{name: "bus_probe"},
		bus:      deps.Bus,
		interval: interval,
	}, nil
}

func (p *busProbe) Run() error {
	if p.bus != nil {
		p.bus.Publish(events.New(events.EventInputSample, events.SourceBackground, map[string]any{
			"probe": p.Name(),
		}))
	}
	p.pace(p.interval)
	return nil
}

func (p *busProbe) Stop() error { return nil }
