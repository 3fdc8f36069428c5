package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SERVER_ADDR points at a running server, e.g. "localhost:8080".
	// The suite skips entirely when it is unset.
	ServerAddr string `envconfig:"SERVER_ADDR"`
	// E2E_DEBUG_JSON dumps every envelope read from the websocket
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
