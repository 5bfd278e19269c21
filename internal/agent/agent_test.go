package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/hooks"
)

func sensorsOnlyConfig() *config.SystemConfig {
	return &config.SystemConfig{
		ConfigName:           "test",
		DefaultMode:          "idle",
		AllowManualSwitching: true,
		Modes: map[string]*config.ModeConfig{
			"idle": {
				Name:        "idle",
				DisplayName: "Idle",
				Description: "does nothing",
				Hertz:       20,
				AgentInputs: []config.PluginSpec{
					{Type: "mock", Config: map[string]any{"messages": []any{"ping"}, "loop": true}},
				},
				Simulators: []config.PluginSpec{{Type: "log"}},
			},
			"active": {
				Name:        "active",
				DisplayName: "Active",
				Description: "also does nothing",
				Hertz:       20,
				Simulators:  []config.PluginSpec{{Type: "log"}},
			},
		},
	}
}

func TestValidateHooks(t *testing.T) {
	reg := hooks.DefaultRegistry()

	tests := []struct {
		name    string
		global  []config.HookSpec
		mode    []config.HookSpec
		wantErr bool
	}{
		{"no hooks", nil, nil, false},
		{"known global", []config.HookSpec{{Type: "log", On: "enter"}}, nil, false},
		{"known mode hook", nil, []config.HookSpec{{Type: "farewell", On: "shutdown"}}, false},
		{"unknown type", []config.HookSpec{{Type: "teleport", On: "enter"}}, nil, true},
		{"unknown trigger", []config.HookSpec{{Type: "log", On: "sometimes"}}, nil, true},
	}

	for _, tt := range tests {
		cfg := sensorsOnlyConfig()
		cfg.GlobalHooks = tt.global
		cfg.Modes["idle"].Hooks = tt.mode

		err := ValidateHooks(cfg, reg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			} else if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("%s: error %v is not ErrInvalidConfig", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
		}
	}
}

func TestNewRejectsUnknownPlugin(t *testing.T) {
	cfg := sensorsOnlyConfig()
	cfg.Modes["idle"].AgentInputs = []config.PluginSpec{{Type: "sonar"}}

	if _, err := New(cfg, Options{}); err == nil {
		t.Fatal("expected plugin validation error")
	}
}

func TestAgentStartStop(t *testing.T) {
	bus := events.NewBus(32)
	defer bus.Close()

	a, err := New(sensorsOnlyConfig(), Options{Bus: bus})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	started, cancelStarted := bus.SubscribeChan(4, events.EventRuntimeStarted)
	defer cancelStarted()
	stopped, cancelStopped := bus.SubscribeChan(4, events.EventRuntimeStopped)
	defer cancelStopped()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := a.Start(ctx); err == nil {
		t.Error("double Start must fail")
	}

	select {
	case e := <-started:
		if e.Payload["mode"] != "idle" {
			t.Errorf("started payload = %v", e.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no runtime.started event")
	}

	a.Stop()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("no runtime.stopped event")
	}
}

func TestAgentRebuildsOnModeSwitch(t *testing.T) {
	bus := events.NewBus(32)
	defer bus.Close()

	a, err := New(sensorsOnlyConfig(), Options{Bus: bus})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer a.Stop()

	if err := a.Modes().Switch("active", "manual"); err != nil {
		t.Fatalf("Switch: %v", err)
	}

	waitForActiveMode(t, a, "active")
}

func waitForActiveMode(t *testing.T, a *Agent, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		a.mu.Lock()
		active := a.active
		a.mu.Unlock()
		if active != nil && active.modeName == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("active runtime never rebuilt for mode %q", want)
}

func TestRuleTriggeredSwitchRebuildsAndStops(t *testing.T) {
	cfg := sensorsOnlyConfig()
	cfg.TransitionRules = []config.TransitionRule{
		{
			FromMode:        "idle",
			ToMode:          "active",
			Type:            config.TransitionInputTriggered,
			TriggerKeywords: []string{"ping"},
		},
	}

	bus := events.NewBus(32)
	defer bus.Close()

	a, err := New(cfg, Options{Bus: bus})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The looping mock input keeps feeding "ping" into the cycle; the rule
	// fires from the cycle goroutine itself, so the rebuild must not wait on
	// that goroutine.
	waitForActiveMode(t, a, "active")

	if got := a.Modes().Current(); got != "active" {
		t.Errorf("current mode = %q", got)
	}

	// Stop must return even though the switch originated inside a cycle.
	stopped := make(chan struct{})
	go func() {
		a.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after a rule-triggered switch")
	}
}
