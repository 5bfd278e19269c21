package config

import (
	"log/slog"
	"os"
	"regexp"
)

// envTokenRe matches ${VAR} and ${VAR:-default} tokens inside string leaves.
var envTokenRe = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// ExpandTree recursively rewrites every string leaf of a decoded config
// tree, substituting environment tokens. Non-string leaves and malformed
// tokens pass through untouched. Substitution never fails: configuration
// loading tolerates missing optional variables rather than aborting.
func ExpandTree(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[k] = ExpandTree(child)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = ExpandTree(child)
		}
		return out
	case string:
		return LoadValue(node)
	default:
		return v
	}
}

// LoadValue substitutes environment tokens in a single string. An unset
// variable with a default yields the default; an unset variable without one
// leaves the literal token text in place and logs a warning.
func LoadValue(value string) string {
	return envTokenRe.ReplaceAllStringFunc(value, func(match string) string {
		parts := envTokenRe.FindStringSubmatch(match)
		name := parts[1]

		if v, ok := os.LookupEnv(name); ok {
			return v
		}

		// parts[2] is the default; distinguish "no default" from an empty
		// default by checking whether the separator was present.
		if hasDefault(match) {
			slog.Info("environment variable not set, using default", "var", name, "default", parts[2])
			return parts[2]
		}

		slog.Warn("environment variable not set and no default provided", "var", name)
		return match
	})
}

func hasDefault(token string) bool {
	for i := 0; i < len(token)-1; i++ {
		if token[i] == ':' && token[i+1] == '-' {
			return true
		}
	}
	return false
}
