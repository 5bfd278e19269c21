// Package config loads, normalizes, and validates embra runtime
// configuration. Legacy single-mode documents and native multi-mode
// documents both converge on one canonical SystemConfig before any plugin
// is instantiated.
package config

import "time"

// SystemConfig is the canonical multi-mode configuration.
type SystemConfig struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	DefaultMode string `json:"default_mode"`

	AllowManualSwitching bool `json:"allow_manual_switching"`
	ModeMemoryEnabled    bool `json:"mode_memory_enabled"`

	// Global credential / network-identity fields shared by every mode.
	APIKey          string `json:"api_key,omitempty"`
	RobotIP         string `json:"robot_ip,omitempty"`
	URID            string `json:"URID,omitempty"`
	UnitreeEthernet string `json:"unitree_ethernet,omitempty"`

	SystemGovernance     string `json:"system_governance,omitempty"`
	SystemPromptExamples string `json:"system_prompt_examples,omitempty"`

	// Global default LLM when a mode does not override it.
	CortexLLM *LLMSpec `json:"cortex_llm,omitempty"`

	Modes           map[string]*ModeConfig `json:"modes"`
	TransitionRules []TransitionRule       `json:"transition_rules"`

	GlobalHooks []HookSpec `json:"global_lifecycle_hooks,omitempty"`

	// ConfigName is the basename the config was loaded from, used as the
	// mode-memory key. Not part of the document itself.
	ConfigName string `json:"-"`
}

// Mode returns the named mode section, or nil.
func (c *SystemConfig) Mode(name string) *ModeConfig {
	return c.Modes[name]
}

// ModeConfig is one named bundle of active plugins and behavioral
// parameters.
type ModeConfig struct {
	Name        string `json:"-"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`

	SystemPromptBase string  `json:"system_prompt_base,omitempty"`
	Hertz            float64 `json:"hertz,omitempty"`
	TimeoutSeconds   float64 `json:"timeout_seconds,omitempty"`

	RememberLocations bool `json:"remember_locations,omitempty"`
	SaveInteractions  bool `json:"save_interactions,omitempty"`

	AgentInputs  []PluginSpec `json:"agent_inputs,omitempty"`
	AgentActions []PluginSpec `json:"agent_actions,omitempty"`
	Backgrounds  []PluginSpec `json:"backgrounds,omitempty"`
	Simulators   []PluginSpec `json:"simulators,omitempty"`

	CortexLLM *LLMSpec `json:"cortex_llm,omitempty"`

	ActionExecutionMode string              `json:"action_execution_mode,omitempty"`
	ActionDependencies  map[string][]string `json:"action_dependencies,omitempty"`

	Hooks []HookSpec `json:"lifecycle_hooks,omitempty"`

	MaxConversationTurns int `json:"max_conversation_turns,omitempty"`
}

// TickInterval converts the mode's polling rate into a loop interval.
// A missing or non-positive hertz defaults to 1 Hz.
func (m *ModeConfig) TickInterval() time.Duration {
	hz := m.Hertz
	if hz <= 0 {
		hz = 1.0
	}
	return time.Duration(float64(time.Second) / hz)
}

// PluginSpec names a plugin type from the static registry plus its
// type-specific payload.
type PluginSpec struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// LLMSpec configures the cortex LLM provider for a mode.
type LLMSpec struct {
	Driver  string         `json:"driver"` // "openai", "ollama"
	Model   string         `json:"model"`
	BaseURL string         `json:"base_url,omitempty"`
	APIKey  string         `json:"api_key,omitempty"`
	Timeout Duration       `json:"timeout,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// TransitionType selects the trigger mechanism of a transition rule.
type TransitionType string

const (
	TransitionInputTriggered TransitionType = "input_triggered"
	TransitionTimeBased      TransitionType = "time_based"
	TransitionContextAware   TransitionType = "context_aware"
	TransitionManual         TransitionType = "manual"
)

// TransitionRule describes one way the runtime may switch modes.
type TransitionRule struct {
	FromMode string         `json:"from_mode"` // "*" matches any mode
	ToMode   string         `json:"to_mode"`
	Type     TransitionType `json:"transition_type"`

	TriggerKeywords []string `json:"trigger_keywords,omitempty"`
	Priority        int      `json:"priority,omitempty"`
	CooldownSeconds float64  `json:"cooldown_seconds,omitempty"`
	TimeoutSeconds  float64  `json:"timeout_seconds,omitempty"`
	CronSpec        string   `json:"cron,omitempty"`

	ContextConditions map[string]any `json:"context_conditions,omitempty"`
}

// HookSpec declares one lifecycle hook from the static hook registry.
type HookSpec struct {
	Type   string         `json:"type"`
	On     string         `json:"on"` // "enter", "exit", "shutdown"
	Config map[string]any `json:"config,omitempty"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
