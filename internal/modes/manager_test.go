package modes

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/events"
)

func managerConfig() *config.SystemConfig {
	return &config.SystemConfig{
		ConfigName:           "robot",
		DefaultMode:          "greeter",
		AllowManualSwitching: true,
		Modes: map[string]*config.ModeConfig{
			"greeter": {Name: "greeter", DisplayName: "Greeter", Description: "greets"},
			"patrol":  {Name: "patrol", DisplayName: "Patrol", Description: "patrols"},
		},
	}
}

func TestManagerStartsAtDefault(t *testing.T) {
	m, err := NewManager(managerConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Current() != "greeter" {
		t.Errorf("Current = %q, want greeter", m.Current())
	}
}

func TestManagerSwitch(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	m, err := NewManager(managerConfig(), bus, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	var gotFrom, gotTo string
	m.OnSwitch(func(from, to, reason string) {
		gotFrom, gotTo = from, to
	})

	ch, cancel := bus.SubscribeChan(4, events.EventModeSwitched)
	defer cancel()

	if err := m.Switch("patrol", "manual"); err != nil {
		t.Fatalf("Switch: %v", err)
	}

	if m.Current() != "patrol" {
		t.Errorf("Current = %q", m.Current())
	}
	if gotFrom != "greeter" || gotTo != "patrol" {
		t.Errorf("listener got %q -> %q", gotFrom, gotTo)
	}

	select {
	case e := <-ch:
		if e.Payload["to"] != "patrol" {
			t.Errorf("event payload = %v", e.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no mode.switched event")
	}
}

func TestManagerSwitchUnknownMode(t *testing.T) {
	m, _ := NewManager(managerConfig(), nil, nil)
	if err := m.Switch("ghost", "manual"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestManualSwitchingGate(t *testing.T) {
	cfg := managerConfig()
	cfg.AllowManualSwitching = false
	m, _ := NewManager(cfg, nil, nil)

	if err := m.Switch("patrol", string(config.TransitionManual)); err == nil {
		t.Fatal("manual switch must be rejected when disabled")
	}
	// Rule-driven switches are still allowed.
	if err := m.Switch("patrol", string(config.TransitionInputTriggered)); err != nil {
		t.Fatalf("rule-driven switch rejected: %v", err)
	}
}

func TestManagerSwitchToCurrentIsNoop(t *testing.T) {
	m, _ := NewManager(managerConfig(), nil, nil)

	called := false
	m.OnSwitch(func(from, to, reason string) { called = true })

	if err := m.Switch("greeter", "manual"); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if called {
		t.Error("listener fired for a no-op switch")
	}
}

func TestModeMemoryRestore(t *testing.T) {
	store, err := OpenMemoryStore(filepath.Join(t.TempDir(), "mm.db"))
	if err != nil {
		t.Fatalf("OpenMemoryStore: %v", err)
	}
	defer store.Close()

	cfg := managerConfig()
	cfg.ModeMemoryEnabled = true

	m1, err := NewManager(cfg, nil, store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m1.Switch("patrol", "manual"); err != nil {
		t.Fatalf("Switch: %v", err)
	}

	// A fresh manager over the same store resumes at the remembered mode.
	m2, err := NewManager(cfg, nil, store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m2.Current() != "patrol" {
		t.Errorf("restored mode = %q, want patrol", m2.Current())
	}
}

func TestModeMemoryIgnoredWhenDisabled(t *testing.T) {
	store, err := OpenMemoryStore(filepath.Join(t.TempDir(), "mm.db"))
	if err != nil {
		t.Fatalf("OpenMemoryStore: %v", err)
	}
	defer store.Close()

	store.SaveLastMode("robot", "patrol")

	cfg := managerConfig() // mode memory disabled
	m, err := NewManager(cfg, nil, store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Current() != "greeter" {
		t.Errorf("mode = %q, memory must be ignored when disabled", m.Current())
	}
}

func TestModeMemoryStaleModeFallsBack(t *testing.T) {
	store, err := OpenMemoryStore(filepath.Join(t.TempDir(), "mm.db"))
	if err != nil {
		t.Fatalf("OpenMemoryStore: %v", err)
	}
	defer store.Close()

	store.SaveLastMode("robot", "deleted_mode")

	cfg := managerConfig()
	cfg.ModeMemoryEnabled = true
	m, err := NewManager(cfg, nil, store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Current() != "greeter" {
		t.Errorf("mode = %q, want default when remembered mode is gone", m.Current())
	}
}
