package main

import (
	"cipher-chat/internal"
	"cipher-chat/server"
	"fmt"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// loadConfig reads an optional .env file, then the environment.
func loadConfig() (internal.Config, error) {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return internal.Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return internal.Config{}, err
	}
	return config, nil
}

func serverConfig(config internal.Config) server.Config {
	return server.Config{
		Address:          config.Address(),
		DefaultRoom:      config.DefaultRoom,
		UniqueNames:      config.UniqueNames,
		MaxNameLength:    config.MaxNameLength,
		MaxLineLength:    config.MaxLineLength,
		HandshakeTimeout: config.HandshakeTimeout,
		ReadTimeout:      config.ReadTimeout,
		WriteTimeout:     config.WriteTimeout,
	}
}
