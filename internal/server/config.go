// Package server provides the relay configuration: runtime defaults,
// environment loading, and sanitization of out-of-range values.
package server

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RateLimitConfig defines the parameters for per-connection message rate
// limiting.
type RateLimitConfig struct {
	Burst          int           `envconfig:"RATE_LIMIT_BURST" default:"5"`
	RefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
}

// Config holds every tunable of the relay. The reference deployment values
// are the defaults: a "lobby" default room plus three pre-provisioned
// permanent rooms, a 10-message history ring, a 10 second reaper period, and
// a one hour inactivity threshold.
type Config struct {
	Env            string   `envconfig:"APP_ENV" default:"dev"`
	Port           string   `envconfig:"SERVER_PORT" default:":8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	MaxMessageSize int64    `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`

	DefaultRoom         string        `envconfig:"DEFAULT_ROOM" default:"lobby"`
	PermanentRooms      []string      `envconfig:"PERMANENT_ROOMS" default:"General,Technology,Gaming"`
	HistoryCapacity     int           `envconfig:"HISTORY_CAPACITY" default:"10"`
	ReapInterval        time.Duration `envconfig:"REAP_INTERVAL" default:"10s"`
	InactivityThreshold time.Duration `envconfig:"INACTIVITY_THRESHOLD" default:"1h"`

	RateLimit RateLimitConfig
}

// LoadConfig reads the configuration from the environment, falling back to
// the struct-tag defaults, and sanitizes the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}
	return sanitizeConfig(cfg), nil
}

// DefaultConfig returns the reference configuration, useful in tests.
func DefaultConfig() Config {
	return sanitizeConfig(Config{
		AllowedOrigins: []string{"http://localhost:8080"},
		PermanentRooms: []string{"General", "Technology", "Gaming"},
	})
}

// sanitizeConfig replaces missing or out-of-range values with usable
// defaults rather than failing startup.
func sanitizeConfig(cfg Config) Config {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.DefaultRoom == "" {
		cfg.DefaultRoom = "lobby"
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = 10
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = 10 * time.Second
	}
	if cfg.InactivityThreshold <= 0 {
		cfg.InactivityThreshold = time.Hour
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	return cfg
}
