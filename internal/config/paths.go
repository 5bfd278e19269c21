package config

import (
	"os"
	"path/filepath"
)

// EmbraPath returns the root directory for embra data.
// It uses $EMBRA_PATH if set, otherwise defaults to ~/.embra.
func EmbraPath() string {
	if v := os.Getenv("EMBRA_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".embra")
	}
	return filepath.Join(home, ".embra")
}

// ConfigDir returns the directory searched for named configs.
func ConfigDir() string {
	return filepath.Join(EmbraPath(), "config")
}

// DotenvPath returns the path to the embra .env file.
func DotenvPath() string {
	return filepath.Join(EmbraPath(), ".env")
}

// HeartbeatPath returns the path of the daemon heartbeat file.
func HeartbeatPath() string {
	return filepath.Join(EmbraPath(), "heartbeat.json")
}

// ModeMemoryPath returns the path of the mode-memory database.
func ModeMemoryPath() string {
	return filepath.Join(EmbraPath(), "mode_memory.db")
}

// InteractionsDir returns the directory of saved interaction logs.
func InteractionsDir() string {
	return filepath.Join(EmbraPath(), "interactions")
}

// LocationsPath returns the path of the location-memory file.
func LocationsPath() string {
	return filepath.Join(EmbraPath(), "locations.json")
}
