package internal

import (
	"cipher-chat/errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config is the server configuration, read from the environment.
type Config struct {
	Host       string `env:"HOST,default=0.0.0.0" validate:"required"`
	Port       int    `env:"PORT,default=8080" validate:"gte=0,lte=65535"`
	HealthPort int    `env:"HEALTH_PORT,default=0" validate:"gte=0,lte=65535"`
	LogLevel   string `env:"LOG_LEVEL,default=INFO" validate:"required"`

	Rooms        string `env:"ROOMS,default=general secure" validate:"required"`
	DefaultRoom  string `env:"DEFAULT_ROOM,default=general" validate:"required"`
	DynamicRooms bool   `env:"DYNAMIC_ROOMS,default=false"`
	UniqueNames  bool   `env:"UNIQUE_NAMES,default=false"`

	MaxNameLength    int           `env:"MAX_NAME_LENGTH,default=32" validate:"gte=1,lte=256"`
	HistoryLimit     int           `env:"HISTORY_LIMIT,default=1000" validate:"gte=0"`
	HistoryReplay    int           `env:"HISTORY_REPLAY,default=0" validate:"gte=0"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,default=30s" validate:"gte=0"`
	ReadTimeout      time.Duration `env:"READ_TIMEOUT,default=0s" validate:"gte=0"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,default=5s" validate:"gte=0"`
	MaxLineLength    int           `env:"MAX_LINE_LENGTH,default=4096" validate:"gte=64"`

	EventBufferSize   int           `env:"EVENT_BUFFER_SIZE,default=1024" validate:"gte=1"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=1m" validate:"gt=0"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES" validate:"omitempty,gte=1"`
	SearchLimit       int           `env:"SEARCH_LIMIT,default=10" validate:"gte=1"`

	CipherMode       string `env:"CIPHER_MODE,default=xor" validate:"oneof=none xor chacha"`
	CipherPassphrase string `env:"CIPHER_PASSPHRASE,default=CipherChatKey123"`
	EnableModeration bool   `env:"ENABLE_MODERATION,default=true"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// Validate checks the field constraints and the values that depend on each
// other.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	if c.CipherMode != "none" && c.CipherPassphrase == "" {
		return fmt.Errorf("%w: CIPHER_PASSPHRASE is required with CIPHER_MODE=%s", errors.ErrInvalidConfig, c.CipherMode)
	}
	if !c.DynamicRooms && !containsFold(c.RoomNames(), c.DefaultRoom) {
		return fmt.Errorf("%w: DEFAULT_ROOM %q is not one of ROOMS", errors.ErrInvalidConfig, c.DefaultRoom)
	}
	return nil
}

// RoomNames splits ROOMS on spaces and commas.
func (c Config) RoomNames() []string {
	return strings.FieldsFunc(c.Rooms, func(r rune) bool { return r == ' ' || r == ',' })
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"%w: CHARACTER_REPLACEMENT must be a single character, got %q",
			errors.ErrInvalidConfig, str,
		)
	}
	return r[0], nil
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
