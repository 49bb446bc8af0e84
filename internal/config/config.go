// Package config provides procd configuration loaded from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds procd configuration.
type Config struct {
	ServiceName string `envconfig:"PROCD_SERVICE_NAME" default:"procd"`

	// HTTP transport; empty disables it.
	HTTPAddr string `envconfig:"PROCD_HTTP_ADDR" default:"127.0.0.1:8080"`

	// NATS transport; an empty URL disables it.
	NATSURL     string `envconfig:"PROCD_NATS_URL"`
	NATSSubject string `envconfig:"PROCD_NATS_SUBJECT" default:"procd.rpc"`
	NATSQueue   string `envconfig:"PROCD_NATS_QUEUE" default:"procd"`

	RequestTimeout time.Duration `envconfig:"PROCD_REQUEST_TIMEOUT" default:"25s"`

	// Rate limiting per client; an RPS of zero disables it.
	RateLimitRPS   float64 `envconfig:"PROCD_RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int     `envconfig:"PROCD_RATE_LIMIT_BURST" default:"20"`

	// Logging
	LogLevel string `envconfig:"PROCD_LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration for serve.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" && c.NATSURL == "" {
		return fmt.Errorf("%s - one of PROCD_HTTP_ADDR or PROCD_NATS_URL is required", logPrefix)
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		return fmt.Errorf("%s - PROCD_NATS_SUBJECT is required with PROCD_NATS_URL", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - PROCD_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("%s - PROCD_RATE_LIMIT_RPS must not be negative", logPrefix)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("%s - PROCD_RATE_LIMIT_BURST must be positive", logPrefix)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s - PROCD_LOG_LEVEL: %w", logPrefix, err)
	}
	return nil
}

// ParseLevel parses a log level name: debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
