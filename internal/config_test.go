package internal

import (
	"cipher-chat/errors"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, es env.EnvSet) Config {
	t.Helper()
	var cfg Config
	require.NoError(t, env.Unmarshal(es, &cfg))
	return cfg
}

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)

	cfg := load(t, env.EnvSet{})

	req.NoError(cfg.Validate())
	req.Equal("0.0.0.0:8080", cfg.Address())
	req.Equal([]string{"general", "secure"}, cfg.RoomNames())
	req.Equal("general", cfg.DefaultRoom)
	req.Equal(30*time.Second, cfg.HandshakeTimeout)
	req.Equal("xor", cfg.CipherMode)
	req.Nil(cfg.LimitMessages)
	r, err := CharacterRune(cfg.CharReplacement)
	req.NoError(err)
	req.Equal('*', r)
}

func TestConfig_Overrides(t *testing.T) {
	req := require.New(t)

	cfg := load(t, env.EnvSet{
		"PORT":           "9000",
		"ROOMS":          "lobby,ops",
		"DEFAULT_ROOM":   "ops",
		"LIMIT_MESSAGES": "20",
		"CIPHER_MODE":    "chacha",
	})

	req.NoError(cfg.Validate())
	req.Equal(9000, cfg.Port)
	req.Equal([]string{"lobby", "ops"}, cfg.RoomNames())
	req.Equal(20, *cfg.LimitMessages)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		es   env.EnvSet
	}{
		{"unknown cipher", env.EnvSet{"CIPHER_MODE": "rot13"}},
		{"default room not declared", env.EnvSet{"DEFAULT_ROOM": "lobby"}},
		{"replacement too long", env.EnvSet{"CHARACTER_REPLACEMENT": "**"}},
		{"port out of range", env.EnvSet{"PORT": "70000"}},
		{"zero page size", env.EnvSet{"LIMIT_MESSAGES": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cfg := load(t, tt.es)
			req.ErrorIs(cfg.Validate(), errors.ErrInvalidConfig)
		})
	}
}

func TestConfig_DynamicRoomsAcceptAnyDefault(t *testing.T) {
	req := require.New(t)
	cfg := load(t, env.EnvSet{"DEFAULT_ROOM": "lobby", "DYNAMIC_ROOMS": "true"})
	req.NoError(cfg.Validate())
}

func TestConfig_MissingPassphrase(t *testing.T) {
	req := require.New(t)
	cfg := load(t, env.EnvSet{"CIPHER_MODE": "chacha"})
	cfg.CipherPassphrase = ""
	req.ErrorIs(cfg.Validate(), errors.ErrInvalidConfig)

	cfg.CipherMode = "none"
	req.NoError(cfg.Validate())
}
