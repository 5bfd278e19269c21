// Package hooks runs the lifecycle hooks declared in configuration at mode
// enter, mode exit, and daemon shutdown.
package hooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quentin-h/embra/internal/conversation"
	"github.com/quentin-h/embra/internal/events"
)

// Trigger is a lifecycle moment hooks can bind to.
type Trigger string

const (
	OnEnter    Trigger = "enter"
	OnExit     Trigger = "exit"
	OnShutdown Trigger = "shutdown"
)

// Context is the information handed to a firing hook.
type Context struct {
	Mode         string
	Trigger      Trigger
	Conversation conversation.Snapshot
}

// Hook is one lifecycle action.
type Hook interface {
	Name() string
	Fire(ctx context.Context, hc Context) error
}

// Deps are the collaborators hook constructors may use.
type Deps struct {
	Bus *events.Bus
}

// Constructor builds a hook from its config payload.
type Constructor func(cfg map[string]any, deps Deps) (Hook, error)

// Registry maps declared hook type names to constructors.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register declares a hook type.
func (r *Registry) Register(name string, fn Constructor) {
	r.constructors[name] = fn
}

// Build constructs a hook by type name.
func (r *Registry) Build(typeName string, cfg map[string]any, deps Deps) (Hook, error) {
	fn, ok := r.constructors[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown hook type %q", typeName)
	}
	return fn(cfg, deps)
}

// Known reports whether a hook type is registered.
func (r *Registry) Known(typeName string) bool {
	_, ok := r.constructors[typeName]
	return ok
}

// Runner holds the instantiated hooks of one mode plus the globals, bucketed
// by trigger.
type Runner struct {
	byTrigger map[Trigger][]Hook
}

// NewRunner returns an empty runner.
func NewRunner() *Runner {
	return &Runner{byTrigger: make(map[Trigger][]Hook)}
}

// Add binds a hook to a trigger.
func (r *Runner) Add(trigger Trigger, h Hook) {
	r.byTrigger[trigger] = append(r.byTrigger[trigger], h)
}

// Fire runs every hook bound to the trigger. Hook failures are logged, not
// fatal; a broken hook never blocks a mode switch or shutdown.
func (r *Runner) Fire(ctx context.Context, trigger Trigger, hc Context) {
	hc.Trigger = trigger
	for _, h := range r.byTrigger[trigger] {
		if err := h.Fire(ctx, hc); err != nil {
			slog.Error("lifecycle hook failed", "hook", h.Name(), "trigger", string(trigger), "mode", hc.Mode, "error", err)
		}
	}
}
