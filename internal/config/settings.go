package config

import "github.com/kelseyhightower/envconfig"

// Settings are process-level knobs resolved from EMBRA_* environment
// variables, independent of the mode configuration document.
type Settings struct {
	GatewayHost       string `envconfig:"GATEWAY_HOST" default:"127.0.0.1"`
	GatewayPort       int    `envconfig:"GATEWAY_PORT" default:"8371"`
	EventBufferSize   int    `envconfig:"EVENT_BUFFER" default:"1024"`
	HeartbeatDisabled bool   `envconfig:"NO_HEARTBEAT" default:"false"`
	Debug             bool   `envconfig:"DEBUG" default:"false"`
}

// SettingsFromEnv resolves Settings from the environment.
func SettingsFromEnv() (Settings, error) {
	var s Settings
	err := envconfig.Process("embra", &s)
	return s, err
}
