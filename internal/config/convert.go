package config

import "log/slog"

// IsSingleMode reports whether a raw configuration document is in the legacy
// single-mode shape. A document missing either `modes` or `default_mode` is
// treated as single-mode; notably, a document that supplies `modes` but
// omits `default_mode` is reinterpreted and converted rather than rejected.
func IsSingleMode(raw map[string]any) bool {
	_, hasModes := raw["modes"]
	_, hasDefault := raw["default_mode"]
	return !hasModes || !hasDefault
}

// ConvertToMultiMode normalizes a raw document into the canonical multi-mode
// shape. Already-canonical input passes through unchanged, so the conversion
// is idempotent. For legacy input a synthetic mode named after the document
// (default "default") is derived: credentials and network identity are
// hoisted into the global section, behavioral fields move into the one mode
// section, and the multi-mode-only features are disabled since they are
// meaningless with exactly one mode.
func ConvertToMultiMode(raw map[string]any) map[string]any {
	if !IsSingleMode(raw) {
		return raw
	}

	modeName := stringField(raw, "name", "default")
	slog.Info("converting single-mode config", "mode", modeName)

	converted := map[string]any{
		"version":                raw["version"],
		"name":                   modeName,
		"default_mode":           modeName,
		"allow_manual_switching": false,
		"mode_memory_enabled":    false,
		"api_key":                stringField(raw, "api_key", ""),
		"robot_ip":               stringField(raw, "robot_ip", ""),
		"URID":                   stringField(raw, "URID", "default"),
		"unitree_ethernet":       stringField(raw, "unitree_ethernet", ""),
		"system_governance":      stringField(raw, "system_governance", ""),
		"system_prompt_examples": stringField(raw, "system_prompt_examples", ""),
		"cortex_llm":             raw["cortex_llm"],
		"modes": map[string]any{
			modeName: buildModeSection(raw, modeName),
		},
		"transition_rules": []any{},
	}

	return converted
}

func buildModeSection(raw map[string]any, modeName string) map[string]any {
	return map[string]any{
		"display_name":          modeName,
		"description":           "Converted from single-mode config '" + modeName + "'",
		"hertz":                 numberField(raw, "hertz", 1.0),
		"system_prompt_base":    stringField(raw, "system_prompt_base", ""),
		"agent_inputs":          listField(raw, "agent_inputs"),
		"agent_actions":         listField(raw, "agent_actions"),
		"backgrounds":           listField(raw, "backgrounds"),
		"simulators":            listField(raw, "simulators"),
		"cortex_llm":            raw["cortex_llm"],
		"action_execution_mode": stringField(raw, "action_execution_mode", "concurrent"),
		"action_dependencies":   mapField(raw, "action_dependencies"),
		"lifecycle_hooks":       listField(raw, "lifecycle_hooks"),
	}
}

func stringField(raw map[string]any, key, def string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return def
}

func numberField(raw map[string]any, key string, def float64) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func listField(raw map[string]any, key string) []any {
	if v, ok := raw[key].([]any); ok {
		return v
	}
	return []any{}
}

func mapField(raw map[string]any, key string) map[string]any {
	if v, ok := raw[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}
