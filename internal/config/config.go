package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Save backends understood by storage.Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is read from the environment. LOG_LEVEL accepts the slog level
// names (debug, info, warn, error).
type Config struct {
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string     `env:"LOG_FILE" envDefault:"scene-engine.log"`

	// StoryFile is a JSON or YAML story; empty plays the built-in forest story.
	StoryFile string `env:"STORY_FILE"`

	SaveBackend string        `env:"SAVE_BACKEND" envDefault:"file"`
	SaveKey     string        `env:"SAVE_KEY" envDefault:"gameState"`
	SaveDir     string        `env:"SAVE_DIR" envDefault:"./saves"`
	SaveTTL     time.Duration `env:"SAVE_TTL" envDefault:"0s"`
	RedisURL    string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	SQLitePath  string        `env:"SQLITE_PATH" envDefault:"./saves/saves.db"`

	// RedisRetries and RedisRetryDelay bound the wait for Redis at startup.
	RedisRetries    int           `env:"REDIS_RETRIES" envDefault:"3"`
	RedisRetryDelay time.Duration `env:"REDIS_RETRY_DELAY" envDefault:"200ms"`

	// NewGame discards the saved game at startup instead of resuming it.
	NewGame bool `env:"NEW_GAME" envDefault:"false"`

	// TelemetryChannel is the Redis channel choice events go to; empty disables it.
	TelemetryChannel string `env:"TELEMETRY_CHANNEL"`

	ChoiceStagger time.Duration `env:"CHOICE_STAGGER" envDefault:"100ms"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.SaveBackend {
	case BackendFile, BackendRedis, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown SAVE_BACKEND %q", c.SaveBackend)
	}
	if strings.TrimSpace(c.SaveKey) == "" {
		return fmt.Errorf("SAVE_KEY is required")
	}
	if c.SaveTTL < 0 {
		return fmt.Errorf("SAVE_TTL must not be negative")
	}
	if c.RedisRetries < 0 || c.RedisRetryDelay < 0 {
		return fmt.Errorf("REDIS_RETRIES and REDIS_RETRY_DELAY must not be negative")
	}
	if c.ChoiceStagger < 0 {
		return fmt.Errorf("CHOICE_STAGGER must not be negative")
	}
	return nil
}
