// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for stellarsync. Settings resolve
// through a simple override chain: defaults -> config file -> environment
// -> CLI flags.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Sync     SyncConfig     `toml:"sync"`
	Logging  LoggingConfig  `toml:"logging"`
}

// APIConfig controls the upstream catalog API client.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"` // per-request HTTP timeout, e.g. "30s"
}

// DatabaseConfig locates the local SQLite store.
type DatabaseConfig struct {
	Path string `toml:"path"` // empty means <data dir>/stellarsync.db
}

// SyncConfig controls scheduler cadence and the engine's pacing knobs.
// Per-endpoint tuning (retry attempts, delta enablement, full-sync
// interval) lives in the database's sync_config rows, not here.
type SyncConfig struct {
	Interval string `toml:"interval"` // daemon cadence between full passes
	ActorID  string `toml:"actor_id"` // identity stamped on every synced record

	// Items pacing: the upstream serves items per category, so one run makes
	// many calls. These knobs bound the call rate.
	CategoryConcurrency int    `toml:"category_concurrency"` // concurrent category fetches per chunk
	ChunkPause          string `toml:"chunk_pause"`          // pause between chunks, e.g. "2s"
	ItemBatchSize       int    `toml:"item_batch_size"`      // items per upsert transaction
}

// LoggingConfig controls log output behavior: level, format, and rotation.
type LoggingConfig struct {
	LogLevel         string `toml:"log_level"`
	LogFile          string `toml:"log_file"` // empty means stderr only
	LogFormat        string `toml:"log_format"`
	LogRetentionDays int    `toml:"log_retention_days"`
}

// Log format values.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.example.catalog/v2",
			Timeout: "30s",
		},
		Sync: SyncConfig{
			Interval:            "1h",
			ActorID:             "system",
			CategoryConcurrency: 3,
			ChunkPause:          "2s",
			ItemBatchSize:       50,
		},
		Logging: LoggingConfig{
			LogLevel:         "info",
			LogFormat:        LogFormatText,
			LogRetentionDays: 14,
		},
	}
}

// APITimeout parses the configured HTTP timeout. Validate guarantees it
// parses, so the fallback only covers a zero-value Config.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}

	return d
}

// SyncInterval parses the daemon cadence.
func (c *Config) SyncInterval() time.Duration {
	d, err := time.ParseDuration(c.Sync.Interval)
	if err != nil || d <= 0 {
		return time.Hour
	}

	return d
}

// ChunkPause parses the pause between item fetch chunks.
func (c *Config) ChunkPause() time.Duration {
	d, err := time.ParseDuration(c.Sync.ChunkPause)
	if err != nil || d < 0 {
		return 2 * time.Second
	}

	return d
}
