// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything cmd/server needs to start.
type Config struct {
	Port         int           `env:"SPLITLEDGER_PORT"          envDefault:"8080"`
	DBPath       string        `env:"SPLITLEDGER_DB_PATH"       envDefault:"./data/splitledger.db"`
	JWTSecret    string        `env:"SPLITLEDGER_JWT_SECRET"`
	TokenTTL     time.Duration `env:"SPLITLEDGER_TOKEN_TTL"     envDefault:"24h"`
	LogLevel     string        `env:"LOG_LEVEL"                 envDefault:"info"`
	LogFormat    string        `env:"LOG_FORMAT"                envDefault:"text"`
	OTELEndpoint string        `env:"SPLITLEDGER_OTEL_ENDPOINT"`
	MetricsPath  string        `env:"SPLITLEDGER_METRICS_PATH"  envDefault:"/metrics"`
}

var ErrMissingSecret = errors.New("SPLITLEDGER_JWT_SECRET must be set")

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot run with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl %s", c.TokenTTL)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
