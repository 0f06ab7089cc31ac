// Package config loads process configuration from ASHES_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DevSecret signs sessions when no secret is configured. Never use it in production.
const DevSecret = "ashes-dev-secret-change-me"

// Map layouts.
const (
	LayoutFixed     = "fixed"
	LayoutGenerated = "generated"
)

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	Addr string `env:"ASHES_ADDR" envDefault:":8080"`

	DBDialect   string `env:"ASHES_DB_DIALECT" envDefault:"sqlite"`
	SQLitePath  string `env:"ASHES_DB_SQLITE_PATH" envDefault:"data/ashes.db"`
	PostgresDSN string `env:"ASHES_DB_POSTGRES_DSN"`

	AuthSecret  string        `env:"ASHES_AUTH_SECRET"`
	AdminEmails []string      `env:"ASHES_ADMIN_EMAILS" envSeparator:","`
	SessionTTL  time.Duration `env:"ASHES_SESSION_TTL" envDefault:"168h"`
	LoginRate   float64       `env:"ASHES_LOGIN_RATE" envDefault:"0.2"`
	LoginBurst  int           `env:"ASHES_LOGIN_BURST" envDefault:"5"`
	CORSOrigins []string      `env:"ASHES_CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	MapLayout    string        `env:"ASHES_MAP_LAYOUT" envDefault:"fixed"`
	MapRadius    int           `env:"ASHES_MAP_RADIUS" envDefault:"4"`
	MapSeed      int64         `env:"ASHES_MAP_SEED" envDefault:"0"`
	SeasonLength time.Duration `env:"ASHES_SEASON_LENGTH" envDefault:"2136h"`

	TickInterval time.Duration `env:"ASHES_TICK_INTERVAL" envDefault:"1m"`
	LogLevel     string        `env:"ASHES_LOG_LEVEL" envDefault:"info"`

	// DevSecretInUse is set by Load when AuthSecret fell back to DevSecret.
	DevSecretInUse bool `env:"-"`
}

// Load parses and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDialect = strings.ToLower(strings.TrimSpace(cfg.DBDialect))
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = DevSecret
		cfg.DevSecretInUse = true
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDialect {
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("ASHES_DB_SQLITE_PATH is required for the sqlite dialect"))
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("ASHES_DB_DIALECT=postgres requires ASHES_DB_POSTGRES_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported ASHES_DB_DIALECT %q", c.DBDialect))
	}
	switch c.MapLayout {
	case LayoutFixed, LayoutGenerated:
	default:
		errs = append(errs, fmt.Errorf("ASHES_MAP_LAYOUT must be %q or %q, got %q", LayoutFixed, LayoutGenerated, c.MapLayout))
	}
	if c.MapRadius < 1 {
		errs = append(errs, fmt.Errorf("ASHES_MAP_RADIUS must be at least 1, got %d", c.MapRadius))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("ASHES_SESSION_TTL must be positive"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("ASHES_TICK_INTERVAL must be positive"))
	}
	if c.SeasonLength < 24*time.Hour {
		errs = append(errs, errors.New("ASHES_SEASON_LENGTH must be at least one day"))
	}
	if c.LoginRate <= 0 || c.LoginBurst < 1 {
		errs = append(errs, errors.New("ASHES_LOGIN_RATE and ASHES_LOGIN_BURST must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("ASHES_LOG_LEVEL: %w", err)
	}
	return l, nil
}
