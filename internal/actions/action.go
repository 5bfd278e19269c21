// Package actions defines the decided-action model and its execution layer.
// Vendor connectors (TTS, webhooks, robot SDKs) are injected behind the
// Connector interface and are not part of this package.
package actions

import "context"

// Action is a single decision produced by the cortex LLM for one cycle.
// Type selects the connector; Arguments carry the connector-specific payload.
type Action struct {
	Type      string         `json:"type"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Connector executes actions of one type against the outside world.
// Implementations wrap already-abstracted vendor/hardware side effects.
type Connector interface {
	Name() string
	Execute(ctx context.Context, action Action) error
}

// ExecutionMode controls how one batch of actions is executed.
type ExecutionMode string

const (
	// ModeConcurrent runs every action of a batch at once.
	ModeConcurrent ExecutionMode = "concurrent"
	// ModeSequential runs actions in batch order, one at a time.
	ModeSequential ExecutionMode = "sequential"
	// ModeDependencies runs actions in waves derived from the configured
	// prerequisite graph.
	ModeDependencies ExecutionMode = "dependencies"
)

// ParseExecutionMode normalizes a configured execution mode string.
// Empty input defaults to concurrent.
func ParseExecutionMode(s string) (ExecutionMode, bool) {
	switch ExecutionMode(s) {
	case "":
		return ModeConcurrent, true
	case ModeConcurrent, ModeSequential, ModeDependencies:
		return ExecutionMode(s), true
	default:
		return "", false
	}
}
