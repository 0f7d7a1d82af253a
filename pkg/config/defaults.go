package config

import (
	"strings"
	"time"

	"github.com/marmos91/bytedrop/internal/bytesize"
)

// GetDefaultConfig returns a configuration with every field set to its
// default value.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Default Strategy:
//   - Zero values (0, "", false) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyContentDefaults(&cfg.Content)
	applyCacheDefaults(&cfg.Cache)
	applyWorkersDefaults(&cfg.Workers)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal
	// representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyContentDefaults sets record creation and persistence defaults.
func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Path == "" {
		cfg.Path = "content"
	}
	if cfg.KeyLength == 0 {
		cfg.KeyLength = 7
	}
	if cfg.Lifetime == 0 {
		cfg.Lifetime = 24 * time.Hour
	}
	if cfg.MaxContentLength == 0 {
		cfg.MaxContentLength = 10 * bytesize.MiB
	}
}

// applyCacheDefaults sets cache defaults.
func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.Expiry == 0 {
		cfg.Expiry = 10 * time.Minute
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 200 * bytesize.MiB
	}
}

// applyWorkersDefaults sets worker pool defaults.
func applyWorkersDefaults(cfg *WorkersConfig) {
	if cfg.IOPoolSize == 0 {
		cfg.IOPoolSize = 16
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1024
	}
}

// applyRateLimitDefaults sets limiter defaults for both scopes.
func applyRateLimitDefaults(cfg *RateLimitConfig) {
	if cfg.Post.Period == 0 {
		cfg.Post.Period = 10 * time.Minute
	}
	if cfg.Post.Limit == 0 {
		cfg.Post.Limit = 30
	}
	if cfg.Read.Period == 0 {
		cfg.Read.Period = 10 * time.Minute
	}
	if cfg.Read.Limit == 0 {
		cfg.Read.Limit = 100
	}
}

// applyMetricsDefaults sets metrics server defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in)
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}
