// Package plugins is the static registry mapping configured component type
// names to constructors. The registry is populated at startup; a validation
// pass fails fast on unknown type names before anything is instantiated.
package plugins

import (
	"context"
	"fmt"

	"github.com/quentin-h/embra/internal/actions"
	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/conversation"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/runtime"
	"github.com/quentin-h/embra/internal/storage"
)

// Input is a polled sensor. Poll returns a formatted snapshot for the input
// fuser, or "" when there is nothing new.
type Input interface {
	Name() string
	Poll(ctx context.Context) (string, error)
}

// Simulator is a plugin that also consumes dispatched action batches.
type Simulator interface {
	runtime.Plugin
	Sim(batch []actions.Action) error
}

// Deps carries the shared collaborators and hoisted global metadata every
// constructor may need.
type Deps struct {
	Bus          *events.Bus
	Conversation *conversation.Machine
	Locations    *storage.Locations

	Mode    string
	APIKey  string
	RobotIP string
	URID    string
}

type (
	// InputFunc constructs an input from its config payload.
	InputFunc func(cfg map[string]any, deps Deps) (Input, error)
	// ConnectorFunc constructs an action connector.
	ConnectorFunc func(cfg map[string]any, deps Deps) (actions.Connector, error)
	// BackgroundFunc constructs a background plugin.
	BackgroundFunc func(cfg map[string]any, deps Deps) (runtime.Plugin, error)
	// SimulatorFunc constructs a simulator plugin.
	SimulatorFunc func(cfg map[string]any, deps Deps) (Simulator, error)
)

// Registry holds the declared component constructors.
type Registry struct {
	inputs      map[string]InputFunc
	connectors  map[string]ConnectorFunc
	backgrounds map[string]BackgroundFunc
	simulators  map[string]SimulatorFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		inputs:      make(map[string]InputFunc),
		connectors:  make(map[string]ConnectorFunc),
		backgrounds: make(map[string]BackgroundFunc),
		simulators:  make(map[string]SimulatorFunc),
	}
}

// RegisterInput declares an input type.
func (r *Registry) RegisterInput(name string, fn InputFunc) {
	r.inputs[name] = fn
}

// RegisterConnector declares an action connector type.
func (r *Registry) RegisterConnector(name string, fn ConnectorFunc) {
	r.connectors[name] = fn
}

// RegisterBackground declares a background type.
func (r *Registry) RegisterBackground(name string, fn BackgroundFunc) {
	r.backgrounds[name] = fn
}

// RegisterSimulator declares a simulator type.
func (r *Registry) RegisterSimulator(name string, fn SimulatorFunc) {
	r.simulators[name] = fn
}

// Validate checks every plugin spec of every mode against the registry.
// Unknown type names are a fatal configuration error.
func (r *Registry) Validate(cfg *config.SystemConfig) error {
	for name, mode := range cfg.Modes {
		for _, spec := range mode.AgentInputs {
			if _, ok := r.inputs[spec.Type]; !ok {
				return fmt.Errorf("%w: mode %q references unknown input %q", config.ErrInvalidConfig, name, spec.Type)
			}
		}
		for _, spec := range mode.AgentActions {
			if _, ok := r.connectors[spec.Type]; !ok {
				return fmt.Errorf("%w: mode %q references unknown action %q", config.ErrInvalidConfig, name, spec.Type)
			}
		}
		for _, spec := range mode.Backgrounds {
			if _, ok := r.backgrounds[spec.Type]; !ok {
				return fmt.Errorf("%w: mode %q references unknown background %q", config.ErrInvalidConfig, name, spec.Type)
			}
		}
		for _, spec := range mode.Simulators {
			if _, ok := r.simulators[spec.Type]; !ok {
				return fmt.Errorf("%w: mode %q references unknown simulator %q", config.ErrInvalidConfig, name, spec.Type)
			}
		}
	}
	return nil
}

// ModeComponents are the instantiated collaborators of one active mode.
type ModeComponents struct {
	Inputs      []Input
	Connectors  []actions.Connector
	Backgrounds []runtime.Plugin
	Simulators  []Simulator
}

// BuildMode instantiates every component a mode declares. Construction is
// all-or-nothing: the first failing constructor aborts the build.
func (r *Registry) BuildMode(mode *config.ModeConfig, deps Deps) (*ModeComponents, error) {
	deps.Mode = mode.Name
	out := &ModeComponents{}

	for _, spec := range mode.AgentInputs {
		fn, ok := r.inputs[spec.Type]
		if !ok {
			return nil, fmt.Errorf("unknown input %q", spec.Type)
		}
		in, err := fn(spec.Config, deps)
		if err != nil {
			return nil, fmt.Errorf("build input %q: %w", spec.Type, err)
		}
		out.Inputs = append(out.Inputs, in)
	}

	for _, spec := range mode.AgentActions {
		fn, ok := r.connectors[spec.Type]
		if !ok {
			return nil, fmt.Errorf("unknown action %q", spec.Type)
		}
		conn, err := fn(spec.Config, deps)
		if err != nil {
			return nil, fmt.Errorf("build action %q: %w", spec.Type, err)
		}
		out.Connectors = append(out.Connectors, conn)
	}

	for _, spec := range mode.Backgrounds {
		fn, ok := r.backgrounds[spec.Type]
		if !ok {
			return nil, fmt.Errorf("unknown background %q", spec.Type)
		}
		bg, err := fn(spec.Config, deps)
		if err != nil {
			return nil, fmt.Errorf("build background %q: %w", spec.Type, err)
		}
		out.Backgrounds = append(out.Backgrounds, bg)
	}

	for _, spec := range mode.Simulators {
		fn, ok := r.simulators[spec.Type]
		if !ok {
			return nil, fmt.Errorf("unknown simulator %q", spec.Type)
		}
		sim, err := fn(spec.Config, deps)
		if err != nil {
			return nil, fmt.Errorf("build simulator %q: %w", spec.Type, err)
		}
		out.Simulators = append(out.Simulators, sim)
	}

	return out, nil
}
