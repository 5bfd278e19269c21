package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file, substitutes environment tokens,
// normalizes legacy single-mode documents, and validates the result.
// JSON5-style documents (.json5/.jsonc/.json, comments and trailing commas
// allowed) and YAML documents are supported.
func Load(path string) (*SystemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	raw, err := decodeRaw(path, data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg, err := Build(raw)
	if err != nil {
		return nil, err
	}

	cfg.ConfigName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return cfg, nil
}

// Build normalizes an already-decoded raw document into a validated
// SystemConfig. Exposed separately from Load for tests and for callers that
// receive configuration over the wire.
func Build(raw map[string]any) (*SystemConfig, error) {
	expanded, _ := ExpandTree(raw).(map[string]any)
	if expanded == nil {
		return nil, fmt.Errorf("%w: document is not a mapping", ErrInvalidConfig)
	}

	ApplyEnvFallbacks(expanded)
	canonical := ConvertToMultiMode(expanded)

	cfg, err := decodeCanonical(canonical)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeRaw(path string, data []byte) (map[string]any, error) {
	var raw map[string]any

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return normalizeYAML(raw).(map[string]any), nil
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(standardized, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
}

// normalizeYAML rewrites yaml.v3's map[any]any nodes into map[string]any so
// the rest of the pipeline sees one tree shape.
func normalizeYAML(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			node[k] = normalizeYAML(child)
		}
		return node
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[fmt.Sprint(k)] = normalizeYAML(child)
		}
		return out
	case []any:
		for i, child := range node {
			node[i] = normalizeYAML(child)
		}
		return node
	default:
		return v
	}
}

// decodeCanonical maps the canonical raw tree onto the typed SystemConfig
// through a JSON round trip, then fills per-mode names and defaults.
func decodeCanonical(canonical map[string]any) (*SystemConfig, error) {
	buf, err := json.Marshal(canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var cfg SystemConfig
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	for name, mode := range cfg.Modes {
		if mode == nil {
			return nil, fmt.Errorf("%w: mode %q is empty", ErrInvalidConfig, name)
		}
		mode.Name = name
		if mode.Hertz <= 0 {
			mode.Hertz = 1.0
		}
		if mode.ActionExecutionMode == "" {
			mode.ActionExecutionMode = "concurrent"
		}
		if mode.CortexLLM == nil {
			mode.CortexLLM = cfg.CortexLLM
		}
	}

	return &cfg, nil
}
