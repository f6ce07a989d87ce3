package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Environment variable names for overrides.
const (
	EnvConfig  = "STELLARSYNC_CONFIG"
	EnvBaseURL = "STELLARSYNC_API_BASE_URL"
	EnvDBPath  = "STELLARSYNC_DB_PATH"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // STELLARSYNC_CONFIG: override config file path
	BaseURL    string // STELLARSYNC_API_BASE_URL: override upstream base URL
	DBPath     string // STELLARSYNC_DB_PATH: override database path
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; Resolve applies the fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		BaseURL:    os.Getenv(EnvBaseURL),
		DBPath:     os.Getenv(EnvDBPath),
	}
}

// CLIOverrides holds values from CLI flags. Flags always win over the
// config file and environment.
type CLIOverrides struct {
	ConfigPath string
	BaseURL    string
	DBPath     string
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal: silently ignoring a typo in a
// config file leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values, supporting zero-config first
// runs.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	if env.BaseURL != "" {
		cfg.API.BaseURL = env.BaseURL
	}

	if env.DBPath != "" {
		cfg.Database.Path = env.DBPath
	}

	if cli.BaseURL != "" {
		cfg.API.BaseURL = cli.BaseURL
	}

	if cli.DBPath != "" {
		cfg.Database.Path = cli.DBPath
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(DefaultDataDir(), "stellarsync.db")
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
