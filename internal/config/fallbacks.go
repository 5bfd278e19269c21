package config

import (
	"log/slog"
	"os"
)

// Placeholder values that ship in example configs and should be treated the
// same as an absent field.
const (
	placeholderRobotIP = "192.168.0.241"
	placeholderAPIKey  = "embra_free"
	placeholderURID    = "default"
)

// ApplyEnvFallbacks fills key global fields from the environment when the
// document leaves them missing, empty, or at a known placeholder. Modifies
// the raw tree in place.
func ApplyEnvFallbacks(raw map[string]any) {
	robotIP, _ := raw["robot_ip"].(string)
	if robotIP == "" || robotIP == placeholderRobotIP {
		if v := os.Getenv("ROBOT_IP"); v != "" {
			raw["robot_ip"] = v
			slog.Info("using ROBOT_IP from environment")
		} else {
			slog.Warn("no robot ip in config or environment")
		}
	}

	apiKey, _ := raw["api_key"].(string)
	if apiKey == "" || apiKey == placeholderAPIKey {
		if v := os.Getenv("EMBRA_API_KEY"); v != "" {
			raw["api_key"] = v
			slog.Info("using EMBRA_API_KEY from environment")
		} else {
			slog.Warn("no API key in config or environment")
		}
	}

	urid, _ := raw["URID"].(string)
	if urid == "" || urid == placeholderURID {
		if v := os.Getenv("URID"); v != "" {
			raw["URID"] = v
			slog.Info("using URID from environment")
		} else if urid == "" {
			slog.Warn("no URID configured, multi-robot deployments will conflict")
		}
	}
}
