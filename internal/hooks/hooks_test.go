package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quentin-h/embra/internal/events"
)

type recordingHook struct {
	name  string
	fired []Context
	err   error
}

func (h *recordingHook) Name() string { return h.name }

func (h *recordingHook) Fire(_ context.Context, hc Context) error {
	h.fired = append(h.fired, hc)
	return h.err
}

func TestRegistryBuildAndKnown(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range []string{"log", "announce", "farewell"} {
		if !r.Known(name) {
			t.Errorf("Known(%q) = false", name)
		}
		h, err := r.Build(name, nil, Deps{})
		if err != nil {
			t.Errorf("Build(%q): %v", name, err)
			continue
		}
		if h.Name() != name {
			t.Errorf("Name = %q, want %q", h.Name(), name)
		}
	}

	if r.Known("teleport") {
		t.Error("Known reports an unregistered type")
	}
	if _, err := r.Build("teleport", nil, Deps{}); err == nil {
		t.Error("Build must fail for an unregistered type")
	}
}

func TestRunnerFiresPerTrigger(t *testing.T) {
	enter := &recordingHook{name: "enter-hook"}
	exit := &recordingHook{name: "exit-hook"}

	r := NewRunner()
	r.Add(OnEnter, enter)
	r.Add(OnExit, exit)

	r.Fire(context.Background(), OnEnter, Context{Mode: "greeter"})

	if len(enter.fired) != 1 {
		t.Fatalf("enter hook fired %d times, want 1", len(enter.fired))
	}
	if len(exit.fired) != 0 {
		t.Fatalf("exit hook fired on enter trigger")
	}
	if got := enter.fired[0]; got.Mode != "greeter" || got.Trigger != OnEnter {
		t.Errorf("hook context = %+v", got)
	}
}

func TestRunnerFailureIsNotFatal(t *testing.T) {
	broken := &recordingHook{name: "broken", err: errors.New("boom")}
	healthy := &recordingHook{name: "healthy"}

	r := NewRunner()
	r.Add(OnShutdown, broken)
	r.Add(OnShutdown, healthy)

	r.Fire(context.Background(), OnShutdown, Context{Mode: "patrol"})

	if len(healthy.fired) != 1 {
		t.Error("a failing hook blocked the hooks after it")
	}
}

func TestAnnounceHookPublishes(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	h, err := DefaultRegistry().Build("announce", nil, Deps{Bus: bus})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ch, cancel := bus.SubscribeChan(4, events.EventModeSwitched)
	defer cancel()

	if err := h.Fire(context.Background(), Context{Mode: "greeter", Trigger: OnEnter}); err != nil {
		t.Fatalf("Fire: %v", err)
	}

	select {
	case e := <-ch:
		if e.Payload["mode"] != "greeter" || e.Payload["trigger"] != "enter" {
			t.Errorf("payload = %v", e.Payload)
		}
		if e.Source != events.SourceHook {
			t.Errorf("source = %q", e.Source)
		}
	case <-time.After(time.Second):
		t.Fatal("announce hook published nothing")
	}
}

func TestAnnounceHookWithoutBus(t *testing.T) {
	h, err := DefaultRegistry().Build("announce", nil, Deps{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := h.Fire(context.Background(), Context{Mode: "greeter"}); err != nil {
		t.Errorf("Fire without a bus: %v", err)
	}
}
