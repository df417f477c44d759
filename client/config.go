package main

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Host string `envconfig:"CHAT_HOST" default:"127.0.0.1"`
	Port int    `envconfig:"CHAT_PORT" default:"8080"`
	// CHAT_NAME skips the username prompt
	Name string `envconfig:"CHAT_NAME"`
	// CHAT_COLOURS enables colorized output
	Colours  bool   `envconfig:"CHAT_COLOURS" default:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
