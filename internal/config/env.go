package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds the RECUR_* variables. Pointers stay nil when unset.
type EnvConfig struct {
	LogLevel       *string        `env:"RECUR_LOG_LEVEL"`
	User           *string        `env:"RECUR_USER"`
	Driver         *string        `env:"RECUR_STORAGE_DRIVER"`
	DBPath         *string        `env:"RECUR_DB_PATH"`
	BusyTimeout    *time.Duration `env:"RECUR_BUSY_TIMEOUT"`
	Preset         *string        `env:"RECUR_ENGINE_PRESET"`
	MaxOccurrences *int           `env:"RECUR_MAX_OCCURRENCES"`
	CacheTTL       *time.Duration `env:"RECUR_CACHE_TTL"`
	Horizon        *time.Duration `env:"RECUR_HORIZON"`
}

// ParseEnv loads the RECUR_* variables from the environment
func ParseEnv() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.Parse(&ec); err != nil {
		return ec, fmt.Errorf("parse env: %w", err)
	}
	return ec, nil
}

// ApplyEnvConfig copies set variables into cfg, skipping flags in changed
func ApplyEnvConfig(cfg *Config, ec EnvConfig, changed map[string]bool) {
	setEnv("log-level", ec.LogLevel, &cfg.LogLevel, changed)
	setEnv("user", ec.User, &cfg.UserID, changed)
	setEnv("driver", ec.Driver, &cfg.Driver, changed)
	setEnv("db", ec.DBPath, &cfg.SQLitePath, changed)
	setEnv("busy-timeout", ec.BusyTimeout, &cfg.BusyTimeout, changed)
	setEnv("preset", ec.Preset, &cfg.Preset, changed)
	setEnv("max-occurrences", ec.MaxOccurrences, &cfg.MaxOccurrences, changed)
	setEnv("cache-ttl", ec.CacheTTL, &cfg.CacheTTL, changed)
	setEnv("horizon", ec.Horizon, &cfg.Horizon, changed)
}

func setEnv[T any](flag string, value *T, dst *T, changed map[string]bool) {
	if value == nil || changed[flag] {
		return
	}
	*dst = *value
}
