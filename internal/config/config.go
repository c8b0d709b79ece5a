package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server runtime configuration, loaded from environment variables.
type Config struct {
	Addr   string `env:"LIFEQUEST_ADDR" envDefault:":8080"`
	DBPath string `env:"LIFEQUEST_DB" envDefault:"data/lifequest.db"`

	JWTSecret      string        `env:"LIFEQUEST_JWT_SECRET" envDefault:"dev-secret-change-me"`
	AccessTokenTTL time.Duration `env:"LIFEQUEST_ACCESS_TOKEN_TTL" envDefault:"24h"`

	// WebhookSecret is the static shared secret the deadline scheduler presents
	// when calling back into the todo webhook.
	WebhookSecret string `env:"LIFEQUEST_WEBHOOK_SECRET" envDefault:"dev-webhook-secret"`
	// BaseURL is the externally reachable address the scheduler posts to.
	BaseURL string `env:"LIFEQUEST_BASE_URL" envDefault:"http://localhost:8080"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// TimeZone is the single configured offset used for all day-boundary math.
	TimeZone string `env:"LIFEQUEST_TZ" envDefault:"Asia/Kolkata"`

	// BalancePath optionally points at a YAML balance override file.
	BalancePath string `env:"LIFEQUEST_BALANCE" envDefault:""`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("LIFEQUEST_JWT_SECRET must not be empty")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
