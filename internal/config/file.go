package config

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config with durations as strings for TOML
type FileConfig struct {
	LogLevel string `toml:"log_level"`
	User     string `toml:"user"`

	Storage struct {
		Driver      string `toml:"driver"`
		Path        string `toml:"path"`
		BusyTimeout string `toml:"busy_timeout"`
	} `toml:"storage"`

	Engine struct {
		Preset         string `toml:"preset"`
		MaxOccurrences int    `toml:"max_occurrences"`
		CacheTTL       string `toml:"cache_ttl"`
		Horizon        string `toml:"horizon"`
	} `toml:"engine"`
}

// LoadFileConfig reads and parses a TOML config file
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig copies file values into cfg, skipping flags in changed
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("user", fc.User, &cfg.UserID)
	s.setString("driver", fc.Storage.Driver, &cfg.Driver)
	s.setString("db", fc.Storage.Path, &cfg.SQLitePath)
	s.setString("preset", fc.Engine.Preset, &cfg.Preset)
	s.setInt("max-occurrences", fc.Engine.MaxOccurrences, &cfg.MaxOccurrences)

	if err := s.setDuration("busy-timeout", fc.Storage.BusyTimeout, &cfg.BusyTimeout); err != nil {
		return err
	}
	if err := s.setDuration("cache-ttl", fc.Engine.CacheTTL, &cfg.CacheTTL); err != nil {
		return err
	}
	if err := s.setDuration("horizon", fc.Engine.Horizon, &cfg.Horizon); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
