package config

import "fmt"

// Load resolves the configuration: defaults, then the TOML file at path (the
// default path when empty, skipped if missing), then the environment, then
// whatever flags are marked in changed. flags must already hold the flag
// values, so Load only fills in what the user did not set on the command
// line.
func Load(path string, flags Config, changed map[string]bool) (Config, error) {
	cfg := DefaultConfig()
	overlay(&cfg, flags, changed)

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" && (explicit || FileExists(path)) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
			return cfg, err
		}
	}

	ec, err := ParseEnv()
	if err != nil {
		return cfg, err
	}
	ApplyEnvConfig(&cfg, ec, changed)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// overlay copies the fields whose flags were set explicitly
func overlay(cfg *Config, flags Config, changed map[string]bool) {
	if changed["log-level"] {
		cfg.LogLevel = flags.LogLevel
	}
	if changed["user"] {
		cfg.UserID = flags.UserID
	}
	if changed["driver"] {
		cfg.Driver = flags.Driver
	}
	if changed["db"] {
		cfg.SQLitePath = flags.SQLitePath
	}
	if changed["busy-timeout"] {
		cfg.BusyTimeout = flags.BusyTimeout
	}
	if changed["preset"] {
		cfg.Preset = flags.Preset
	}
	if changed["max-occurrences"] {
		cfg.MaxOccurrences = flags.MaxOccurrences
	}
	if changed["cache-ttl"] {
		cfg.CacheTTL = flags.CacheTTL
	}
	if changed["horizon"] {
		cfg.Horizon = flags.Horizon
	}
}
