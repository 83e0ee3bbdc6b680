// Package config centralizes all application configuration into typed structs.
//
// Go Learning Note — Configuration Management:
// Go projects typically manage configuration in one of these ways:
//  1. Struct literals with defaults (NewDefaultConfig below)
//  2. Environment variables
//  3. Config files (YAML/TOML) via "github.com/spf13/viper"
//  4. Command-line flags via the standard "flag" package or cobra
//
// This package layers the first three: defaults come from NewDefaultConfig,
// a YAML file may override them, and SSID_* environment variables override
// both (SSID_SERVER_PORT, SSID_IDENTIFIER_FORMAT, ...).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"sharedstreets/pkg/ssid"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "SSID"

// Config is the top-level configuration container.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Identifier IdentifierConfig `mapstructure:"identifier"`
	Store      StoreConfig      `mapstructure:"store"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release or test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// IdentifierConfig selects the identifier format used when a request does
// not ask for one. Consumers are bound to one format, so this is normally set
// once per deployment.
type IdentifierConfig struct {
	Format string `mapstructure:"format"`
}

// StoreConfig bounds the in-memory feature store and sets the zoom of its
// tile index. Zoom 12 tiles are roughly 10 km across at the equator.
type StoreConfig struct {
	Capacity int `mapstructure:"capacity"`
	TileZoom int `mapstructure:"tile_zoom"`
}

// RateLimitConfig holds per-client rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// NewDefaultConfig returns a Config populated with sensible defaults.
//
// Go Learning Note — Constructor Functions:
// Go has no constructors. By convention, New<Type>() functions serve the same
// purpose. They return a pointer (*Config) so the caller gets a reference to
// shared, mutable state (tests tweak single fields before wiring services).
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            ":8080",
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Identifier: IdentifierConfig{
			Format: string(ssid.DefaultFormat),
		},
		Store: StoreConfig{
			Capacity: 100_000,
			TileZoom: 12,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Log: LogConfig{
			Debug: false,
		},
	}
}

// Load reads configuration from an optional YAML file and the environment.
// An empty path means defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewDefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it: viper
// only consults the environment for keys it already knows about.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("identifier.format", d.Identifier.Format)
	v.SetDefault("store.capacity", d.Store.Capacity)
	v.SetDefault("store.tile_zoom", d.Store.TileZoom)
	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
	v.SetDefault("log.debug", d.Log.Debug)
}

// IDFormat returns the parsed default identifier format.
func (c *Config) IDFormat() ssid.Format {
	f, err := ssid.ParseFormat(c.Identifier.Format)
	if err != nil {
		return ssid.DefaultFormat
	}
	return f
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode: %s (must be 'debug', 'release', or 'test')", c.Server.Mode)
	}

	if _, err := ssid.ParseFormat(c.Identifier.Format); err != nil {
		return fmt.Errorf("invalid identifier format: %q (must be 'hex' or 'base58')", c.Identifier.Format)
	}

	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store capacity must be positive")
	}

	if c.Store.TileZoom < 0 || c.Store.TileZoom > 22 {
		return fmt.Errorf("invalid tile zoom: %d (must be between 0 and 22)", c.Store.TileZoom)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive")
		}
	}

	return nil
}
