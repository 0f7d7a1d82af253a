// Package config loads, validates and persists the bytedrop configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/bytedrop/internal/bytesize"
)

// Config represents the bytedrop configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (BYTEDROP_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server holds the bind address and lifecycle settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Content controls record creation and persistence
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Cache bounds the in-memory record cache
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Workers sizes the background worker infrastructure
	Workers WorkersConfig `mapstructure:"workers" yaml:"workers"`

	// RateLimit configures the per-IP request limiters
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Host is the bind address
	Host string `mapstructure:"host" validate:"required" yaml:"host"`

	// Port is the bind port
	Port int `mapstructure:"port" validate:"gte=1,lte=65535" yaml:"port"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0" yaml:"shutdown_timeout"`
}

// ContentConfig controls record creation and persistence.
type ContentConfig struct {
	// Path is the content directory, created on startup if absent
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// KeyLength is the generated token length. Must be at least 2.
	KeyLength int `mapstructure:"key_length" validate:"gte=2" yaml:"key_length"`

	// Lifetime is how long a record is retained before the sweeper
	// deletes it
	Lifetime time.Duration `mapstructure:"lifetime" validate:"gt=0" yaml:"lifetime"`

	// MaxContentLength caps the stored (post-compression) size of a
	// record
	MaxContentLength bytesize.ByteSize `mapstructure:"max_content_length" validate:"gt=0" yaml:"max_content_length"`
}

// CacheConfig bounds the in-memory record cache.
type CacheConfig struct {
	// Expiry is the idle TTL of cache entries and doubles as the sweep
	// interval
	Expiry time.Duration `mapstructure:"expiry" validate:"gt=0" yaml:"expiry"`

	// MaxSize bounds the total weight of cached records
	MaxSize bytesize.ByteSize `mapstructure:"max_size" validate:"gt=0" yaml:"max_size"`
}

// WorkersConfig sizes the background worker infrastructure.
type WorkersConfig struct {
	// IOPoolSize is the number of blocking I/O workers
	IOPoolSize int `mapstructure:"io_pool_size" validate:"gte=1" yaml:"io_pool_size"`

	// QueueSize is the I/O job queue capacity
	QueueSize int `mapstructure:"queue_size" validate:"gte=1" yaml:"queue_size"`
}

// ScopeLimitConfig configures one rate-limiter scope.
type ScopeLimitConfig struct {
	// Period is the fixed window length
	Period time.Duration `mapstructure:"period" validate:"gt=0" yaml:"period"`

	// Limit is the number of accepted requests per window per client
	Limit int `mapstructure:"limit" validate:"gte=1" yaml:"limit"`
}

// RateLimitConfig configures the per-IP request limiters.
type RateLimitConfig struct {
	// Post limits content creation
	Post ScopeLimitConfig `mapstructure:"post" yaml:"post"`

	// Read limits content retrieval
	Read ScopeLimitConfig `mapstructure:"read" yaml:"read"`
}

// MetricsConfig contains Prometheus metrics server configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics server runs
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the metrics server port
	Port int `mapstructure:"port" validate:"gte=1,lte=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	// A missing config file is acceptable: registered defaults and
	// environment overrides still apply.
	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	return nil
}

// SaveConfig saves the configuration to the specified file path in YAML
// format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the BYTEDROP_ prefix and underscores.
	// Example: BYTEDROP_SERVER_HOST=0.0.0.0
	v.SetEnvPrefix("BYTEDROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register every key so environment overrides apply even when the
	// config file omits the key entirely.
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// setViperDefaults mirrors ApplyDefaults into viper's key registry.
func setViperDefaults(v *viper.Viper) {
	defaults := GetDefaultConfig()

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.output", defaults.Logging.Output)

	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)

	v.SetDefault("content.path", defaults.Content.Path)
	v.SetDefault("content.key_length", defaults.Content.KeyLength)
	v.SetDefault("content.lifetime", defaults.Content.Lifetime)
	v.SetDefault("content.max_content_length", defaults.Content.MaxContentLength.String())

	v.SetDefault("cache.expiry", defaults.Cache.Expiry)
	v.SetDefault("cache.max_size", defaults.Cache.MaxSize.String())

	v.SetDefault("workers.io_pool_size", defaults.Workers.IOPoolSize)
	v.SetDefault("workers.queue_size", defaults.Workers.QueueSize)

	v.SetDefault("ratelimit.post.period", defaults.RateLimit.Post.Period)
	v.SetDefault("ratelimit.post.limit", defaults.RateLimit.Post.Limit)
	v.SetDefault("ratelimit.read.period", defaults.RateLimit.Read.Period)
	v.SetDefault("ratelimit.read.limit", defaults.RateLimit.Read.Limit)

	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	v.SetDefault("metrics.port", defaults.Metrics.Port)
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file
// was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types:
// time.Duration strings and bytesize.ByteSize strings like "10Mi".
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// getConfigDir returns the default configuration directory:
// $XDG_CONFIG_HOME/bytedrop, falling back to ~/.config/bytedrop.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bytedrop")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "bytedrop")
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// InitConfig writes the default configuration to the default location.
// Returns the path written. Fails if the file exists unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes the default configuration to path.
// Fails if the file exists unless force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}
	return SaveConfig(GetDefaultConfig(), path)
}
