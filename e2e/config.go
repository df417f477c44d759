package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_CHAT_ADDR points at a running server, the suite is skipped when empty
	ChatAddr   string `envconfig:"E2E_CHAT_ADDR"`
	HealthAddr string `envconfig:"E2E_HEALTH_ADDR"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
