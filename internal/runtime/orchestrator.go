package runtime

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxWorkers caps the number of concurrently running plugin loops regardless
// of how many plugins a mode configures.
const maxWorkers = 12

// runBackoff is the fixed delay after a failed plugin Run before the next
// attempt. Bounded and non-exponential so an immediately-crashing plugin
// settles into a reduced duty cycle instead of busy-looping.
const runBackoff = 100 * time.Millisecond

// Orchestrator runs an arbitrary number of independently-failing plugins
// under a bounded worker budget. One orchestrator instance serves one plugin
// family (backgrounds or simulators); both use the same mechanics.
//
// Plugins share a single stop signal per orchestrator generation. Shutdown is
// cooperative and coarse: there is no per-plugin cancellation, and a plugin
// that never returns from Run leaks its goroutine until process exit.
type Orchestrator struct {
	kind string

	mu         sync.Mutex
	plugins    []Plugin
	sig        *StopSignal
	group      *errgroup.Group
	launchDone chan struct{}
	started    bool
}

// NewOrchestrator creates an orchestrator for the named plugin family
// ("background", "simulator").
func NewOrchestrator(kind string) *Orchestrator {
	return &Orchestrator{
		kind: kind,
		sig:  NewStopSignal(),
	}
}

// Register adds a plugin and binds it to the shared stop signal. Registration
// is idempotent by name: a duplicate is logged and skipped, not an error.
func (o *Orchestrator) Register(p Plugin) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, existing := range o.plugins {
		if existing.Name() == p.Name() {
			slog.Warn("plugin already registered, skipping", "kind", o.kind, "plugin", p.Name())
			return
		}
	}

	p.SetStopSignal(o.sig)
	o.plugins = append(o.plugins, p)
}

// Workers returns the worker budget for the current plugin count:
// min(12, count) with a floor of one, so an empty orchestrator still
// starts with a single idle slot.
func (o *Orchestrator) Workers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return workerBudget(len(o.plugins))
}

func workerBudget(n int) int {
	if n <= 0 {
		return 1
	}
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}

// PluginNames returns the names of the registered plugins.
func (o *Orchestrator) PluginNames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, len(o.plugins))
	for i, p := range o.plugins {
		names[i] = p.Name()
	}
	return names
}

// Start submits one long-running loop per registered plugin and returns
// immediately. The loops run under an errgroup capped at the worker budget
// and are joined by Stop.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		slog.Warn("orchestrator already started", "kind", o.kind)
		return
	}

	workers := workerBudget(len(o.plugins))
	o.group = &errgroup.Group{}
	o.group.SetLimit(workers)
	o.launchDone = make(chan struct{})
	o.started = true

	sig := o.sig
	group := o.group
	launchDone := o.launchDone
	plugins := make([]Plugin, len(o.plugins))
	copy(plugins, o.plugins)

	// Submit from a separate goroutine: group.Go blocks once the worker
	// budget is saturated, and Start must not.
	go func() {
		defer close(launchDone)
		for _, p := range plugins {
			plugin := p
			group.Go(func() error {
				o.runLoop(plugin, sig)
				return nil
			})
		}
	}()

	slog.Info("orchestrator started", "kind", o.kind, "plugins", len(o.plugins), "workers", workers)
}

// runLoop invokes the plugin until the stop signal is set. Errors never
// escape the loop: each failure is logged and followed by a fixed backoff.
func (o *Orchestrator) runLoop(p Plugin, sig *StopSignal) {
	for !sig.IsSet() {
		if err := p.Run(); err != nil {
			slog.Error("plugin run failed", "kind", o.kind, "plugin", p.Name(), "error", err)
			sig.Wait(runBackoff)
		}
	}
}

// Stop sets the stop signal, calls Stop on every registered plugin, and
// blocks until all loops drain. Individual shutdown failures are logged so
// one plugin cannot block its siblings. The registered-plugin list is cleared
// afterwards, leaving the orchestrator ready for a fresh Register/Start cycle.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	sig := o.sig
	group := o.group
	launchDone := o.launchDone
	plugins := o.plugins
	o.mu.Unlock()

	sig.Set()

	for _, p := range plugins {
		if err := p.Stop(); err != nil {
			slog.Error("plugin stop failed", "kind", o.kind, "plugin", p.Name(), "error", err)
		}
	}

	if launchDone != nil {
		<-launchDone
	}
	if group != nil {
		_ = group.Wait()
	}

	o.mu.Lock()
	o.plugins = nil
	o.group = nil
	o.launchDone = nil
	o.started = false
	o.sig = NewStopSignal()
	o.mu.Unlock()

	slog.Info("orchestrator stopped", "kind", o.kind)
}
