package config

import (
	"errors"
	"fmt"

	"github.com/quentin-h/embra/internal/actions"
)

// ErrInvalidConfig marks structural configuration failures. These are fatal:
// startup aborts before any plugin runs or any side effect occurs.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the structural integrity of a canonical configuration.
// It runs after conversion, so legacy and native documents pass one gate.
func Validate(cfg *SystemConfig) error {
	if len(cfg.Modes) == 0 {
		return fmt.Errorf("%w: no modes configured", ErrInvalidConfig)
	}
	if cfg.DefaultMode == "" {
		return fmt.Errorf("%w: default_mode is required", ErrInvalidConfig)
	}
	if _, ok := cfg.Modes[cfg.DefaultMode]; !ok {
		return fmt.Errorf("%w: default_mode %q is not a configured mode", ErrInvalidConfig, cfg.DefaultMode)
	}

	for name, mode := range cfg.Modes {
		if mode.DisplayName == "" {
			return fmt.Errorf("%w: mode %q is missing display_name", ErrInvalidConfig, name)
		}
		if mode.Description == "" {
			return fmt.Errorf("%w: mode %q is missing description", ErrInvalidConfig, name)
		}
		if _, ok := actions.ParseExecutionMode(mode.ActionExecutionMode); !ok {
			return fmt.Errorf("%w: mode %q has unknown action_execution_mode %q", ErrInvalidConfig, name, mode.ActionExecutionMode)
		}
		if len(mode.ActionDependencies) > 0 {
			if _, err := actions.NewDAG(mode.ActionDependencies); err != nil {
				return fmt.Errorf("%w: mode %q: %v", ErrInvalidConfig, name, err)
			}
		}
	}

	for i, rule := range cfg.TransitionRules {
		if rule.ToMode == "" {
			return fmt.Errorf("%w: transition rule %d is missing to_mode", ErrInvalidConfig, i)
		}
		if _, ok := cfg.Modes[rule.ToMode]; !ok {
			return fmt.Errorf("%w: transition rule %d targets unknown mode %q", ErrInvalidConfig, i, rule.ToMode)
		}
		if rule.FromMode != "" && rule.FromMode != "*" {
			if _, ok := cfg.Modes[rule.FromMode]; !ok {
				return fmt.Errorf("%w: transition rule %d leaves unknown mode %q", ErrInvalidConfig, i, rule.FromMode)
			}
		}
		switch rule.Type {
		case TransitionInputTriggered, TransitionTimeBased, TransitionContextAware, TransitionManual:
		default:
			return fmt.Errorf("%w: transition rule %d has unknown transition_type %q", ErrInvalidConfig, i, rule.Type)
		}
	}

	return nil
}
