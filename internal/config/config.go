// Package config resolves recurctl settings from defaults, a TOML file,
// RECUR_* environment variables and command-line flags, in rising order of
// precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/cyp0633/librecur/recurrence"
)

// Storage drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Engine presets, matching the recurrence package's EngineConfig values
const (
	PresetDefault         = "default"
	PresetHighPerformance = "high_performance"
	PresetLowMemory       = "low_memory"
	PresetDisabled        = "disabled"
)

// Config holds CLI configuration for recurctl
type Config struct {
	LogLevel string
	UserID   string

	Driver      string
	SQLitePath  string
	BusyTimeout time.Duration

	Preset         string
	MaxOccurrences int
	CacheTTL       time.Duration

	// Horizon bounds expansions that are given no end of their own
	Horizon time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		LogLevel:       "info",
		UserID:         "local",
		Driver:         DriverMemory,
		SQLitePath:     DefaultDatabasePath(),
		BusyTimeout:    5 * time.Second,
		Preset:         PresetDefault,
		MaxOccurrences: recurrence.DefaultExpansionOptions.MaxOccurrences,
		Horizon:        365 * 24 * time.Hour,
	}
}

// DefaultConfigPath returns ~/.recurctl/config.toml, or "" without a home
// directory
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".recurctl", "config.toml")
	}
	return ""
}

// DefaultDatabasePath returns ~/.recurctl/tasks.db, or a relative path
// without a home directory
func DefaultDatabasePath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".recurctl", "tasks.db")
	}
	return "tasks.db"
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.UserID == "" {
		return fmt.Errorf("user is required")
	}
	switch c.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("db path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	if _, ok := presets[c.Preset]; !ok {
		return fmt.Errorf("unknown engine preset %q", c.Preset)
	}
	if c.MaxOccurrences <= 0 {
		return fmt.Errorf("max occurrences must be positive")
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive")
	}
	return nil
}

var presets = map[string]recurrence.EngineConfig{
	PresetDefault:         recurrence.DefaultEngineConfig,
	PresetHighPerformance: recurrence.HighPerformanceConfig,
	PresetLowMemory:       recurrence.LowMemoryConfig,
	PresetDisabled:        recurrence.DisabledCacheConfig,
}

// EngineConfig builds the engine configuration from the preset and overrides
func (c *Config) EngineConfig() recurrence.EngineConfig {
	ec, ok := presets[c.Preset]
	if !ok {
		ec = recurrence.DefaultEngineConfig
	}
	if c.MaxOccurrences > 0 {
		ec.MaxOccurrences = c.MaxOccurrences
	}
	if c.CacheTTL > 0 {
		ec.CacheConfig.TTL = c.CacheTTL
	}
	return ec
}

// Level returns the parsed log level, falling back to info
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

// configSetter applies values unless the matching flag was set explicitly
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration if valid and flag not changed
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
