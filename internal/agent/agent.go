// Package agent wires configuration, plugins, modes, and the cortex loop
// into the running embra daemon.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/conversation"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/hooks"
	"github.com/quentin-h/embra/internal/modes"
	"github.com/quentin-h/embra/internal/plugins"
	"github.com/quentin-h/embra/internal/storage"
)

// Agent is the top-level runtime. It owns the shared collaborators and the
// currently active mode runtime, and rebuilds the latter on every switch.
type Agent struct {
	cfg      *config.SystemConfig
	registry *plugins.Registry
	hookReg  *hooks.Registry
	bus      *events.Bus
	conv     *conversation.Machine
	manager  *modes.Manager
	engine   *modes.Engine
	store    *modes.MemoryStore

	locations       *storage.Locations
	interactionsDir string

	mu     sync.Mutex
	ctx    context.Context
	active *modeRuntime

	// switchPing wakes the switch worker; pings coalesce, the worker always
	// rebuilds toward the manager's current mode.
	switchPing chan struct{}
	switchDone chan struct{}
	quit       chan struct{}
}

// Options configure agent construction.
type Options struct {
	Registry     *plugins.Registry
	HookRegistry *hooks.Registry
	Bus          *events.Bus
	MemoryPath   string

	// LocationsPath backs remember_locations; InteractionsDir backs
	// save_interactions. Either may be empty to disable the feature.
	LocationsPath   string
	InteractionsDir string
}

// New assembles an agent from a validated config. Plugin and hook specs are
// checked against the registries up front so a bad config fails before
// anything starts.
func New(cfg *config.SystemConfig, opts Options) (*Agent, error) {
	registry := opts.Registry
	if registry == nil {
		registry = plugins.DefaultRegistry()
	}
	hookReg := opts.HookRegistry
	if hookReg == nil {
		hookReg = hooks.DefaultRegistry()
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus(1024)
	}

	if err := registry.Validate(cfg); err != nil {
		return nil, err
	}
	if err := ValidateHooks(cfg, hookReg); err != nil {
		return nil, err
	}

	var store *modes.MemoryStore
	if cfg.ModeMemoryEnabled && opts.MemoryPath != "" {
		s, err := modes.OpenMemoryStore(opts.MemoryPath)
		if err != nil {
			slog.Warn("mode memory disabled", "error", err)
		} else {
			store = s
		}
	}

	manager, err := modes.NewManager(cfg, bus, store)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	maxTurns := conversation.DefaultMaxTurns
	if mode := manager.CurrentMode(); mode != nil && mode.MaxConversationTurns > 0 {
		maxTurns = mode.MaxConversationTurns
	}

	var locations *storage.Locations
	if opts.LocationsPath != "" && anyModeRemembers(cfg) {
		locations, err = storage.OpenLocations(opts.LocationsPath)
		if err != nil {
			slog.Warn("location memory disabled", "error", err)
		}
	}

	a := &Agent{
		cfg:             cfg,
		registry:        registry,
		hookReg:         hookReg,
		bus:             bus,
		conv:            conversation.NewMachine(maxTurns),
		manager:         manager,
		store:           store,
		locations:       locations,
		interactionsDir: opts.InteractionsDir,
		switchPing:      make(chan struct{}, 1),
	}

	a.engine = modes.NewEngine(cfg.TransitionRules, manager.Current, func(to string, rule config.TransitionRule) error {
		return manager.Switch(to, string(rule.Type))
	})
	manager.OnSwitch(a.onModeSwitched)
	return a, nil
}

func anyModeRemembers(cfg *config.SystemConfig) bool {
	for _, mode := range cfg.Modes {
		if mode.RememberLocations {
			return true
		}
	}
	return false
}

// ValidateHooks checks every declared hook spec against the registry and
// the known triggers.
func ValidateHooks(cfg *config.SystemConfig, reg *hooks.Registry) error {
	check := func(owner string, specs []config.HookSpec) error {
		for _, spec := range specs {
			if !reg.Known(spec.Type) {
				return fmt.Errorf("%w: %s references unknown hook %q", config.ErrInvalidConfig, owner, spec.Type)
			}
			switch hooks.Trigger(spec.On) {
			case hooks.OnEnter, hooks.OnExit, hooks.OnShutdown:
			default:
				return fmt.Errorf("%w: %s hook %q has unknown trigger %q", config.ErrInvalidConfig, owner, spec.Type, spec.On)
			}
		}
		return nil
	}

	if err := check("global", cfg.GlobalHooks); err != nil {
		return err
	}
	for name, mode := range cfg.Modes {
		if err := check("mode "+name, mode.Hooks); err != nil {
			return err
		}
	}
	return nil
}

// Bus exposes the event bus for the gateway.
func (a *Agent) Bus() *events.Bus { return a.bus }

// Conversation exposes the conversation machine.
func (a *Agent) Conversation() *conversation.Machine { return a.conv }

// Modes exposes the mode manager.
func (a *Agent) Modes() *modes.Manager { return a.manager }

// Config returns the loaded configuration.
func (a *Agent) Config() *config.SystemConfig { return a.cfg }

// Start brings up the initial mode and the transition engine.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active != nil {
		return fmt.Errorf("agent already started")
	}
	a.ctx = ctx

	mode := a.manager.CurrentMode()
	rt, err := a.newModeRuntime(ctx, mode)
	if err != nil {
		return err
	}
	a.active = rt
	rt.start(ctx)
	rt.hooks.Fire(ctx, hooks.OnEnter, a.hookContext(mode.Name))

	if err := a.engine.Start(); err != nil {
		return err
	}

	a.quit = make(chan struct{})
	a.switchDone = make(chan struct{})
	go a.switchLoop(a.quit)

	a.bus.Publish(events.New(events.EventRuntimeStarted, events.SourceRuntime, map[string]any{
		"mode": mode.Name,
	}))
	slog.Info("agent started", "config", a.cfg.ConfigName, "mode", mode.Name)
	return nil
}

// onModeSwitched runs on the manager's switch path, which may be the active
// mode's own cycle goroutine (input_triggered and context_aware rules fire
// from inside the cycle). Tearing the runtime down here would wait on that
// very goroutine, so the rebuild is handed to the switch worker instead.
func (a *Agent) onModeSwitched(from, to, reason string) {
	select {
	case a.switchPing <- struct{}{}:
	default:
	}
}

// switchLoop serializes mode rebuilds off the switch notification path.
func (a *Agent) switchLoop(quit chan struct{}) {
	defer close(a.switchDone)
	for {
		select {
		case <-quit:
			return
		case <-a.switchPing:
			a.rebuildActive()
		}
	}
}

// rebuildActive tears down the active runtime and brings up the manager's
// current mode. Coalesced pings make this idempotent: rebuilding toward the
// mode that is already active is a no-op.
func (a *Agent) rebuildActive() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active == nil {
		return
	}
	to := a.manager.Current()
	if a.active.modeName == to {
		return
	}

	old := a.active
	old.hooks.Fire(a.ctx, hooks.OnExit, a.hookContext(old.modeName))
	old.stop()
	a.active = nil

	rt, err := a.newModeRuntime(a.ctx, a.cfg.Mode(to))
	if err != nil {
		slog.Error("mode rebuild failed, agent idle", "mode", to, "error", err)
		return
	}
	a.active = rt
	rt.start(a.ctx)
	rt.hooks.Fire(a.ctx, hooks.OnEnter, a.hookContext(to))
}

// Stop shuts the agent down: switch worker, transition engine, active mode,
// shutdown hooks, then the bus event.
func (a *Agent) Stop() {
	// Drain the switch worker first so no rebuild races the teardown. The
	// lock is released while waiting; an in-flight rebuild needs it.
	a.mu.Lock()
	quit, done := a.quit, a.switchDone
	a.quit = nil
	a.mu.Unlock()
	if quit != nil {
		close(quit)
		<-done
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.engine.Stop()

	if a.active != nil {
		ctx := context.Background()
		a.active.hooks.Fire(ctx, hooks.OnExit, a.hookContext(a.manager.Current()))
		a.active.hooks.Fire(ctx, hooks.OnShutdown, a.hookContext(a.manager.Current()))
		a.active.stop()
		a.active = nil
	}

	if a.store != nil {
		a.store.Close()
	}

	a.bus.Publish(events.New(events.EventRuntimeStopped, events.SourceRuntime, nil))
	slog.Info("agent stopped", "config", a.cfg.ConfigName)
}

func (a *Agent) hookContext(mode string) hooks.Context {
	return hooks.Context{
		Mode:         mode,
		Conversation: a.conv.Snapshot(),
	}
}
