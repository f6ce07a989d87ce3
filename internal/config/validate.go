package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks a Config for internally inconsistent or unusable values.
// It returns the first problem found with enough context to fix it.
func Validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}

	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", cfg.API.BaseURL)
	}

	if err := validateDuration("api.timeout", cfg.API.Timeout); err != nil {
		return err
	}

	if err := validateDuration("sync.interval", cfg.Sync.Interval); err != nil {
		return err
	}

	if cfg.Sync.ActorID == "" {
		return fmt.Errorf("sync.actor_id must not be empty")
	}

	if cfg.Sync.CategoryConcurrency < 1 {
		return fmt.Errorf("sync.category_concurrency must be at least 1")
	}

	if err := validateDuration("sync.chunk_pause", cfg.Sync.ChunkPause); err != nil {
		return err
	}

	if cfg.Sync.ItemBatchSize < 1 {
		return fmt.Errorf("sync.item_batch_size must be at least 1")
	}

	switch cfg.Logging.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.log_level %q is not one of debug, info, warn, error", cfg.Logging.LogLevel)
	}

	switch cfg.Logging.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("logging.log_format %q is not one of %s, %s", cfg.Logging.LogFormat, LogFormatText, LogFormatJSON)
	}

	if cfg.Logging.LogRetentionDays < 0 {
		return fmt.Errorf("logging.log_retention_days must not be negative")
	}

	return nil
}

func validateDuration(key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s %q is not a duration (e.g. \"30s\", \"1h\"): %w", key, value, err)
	}

	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %q", key, value)
	}

	return nil
}
