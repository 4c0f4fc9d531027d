// Package config loads and validates the TOML configuration file: fetch
// behavior, per-provider enablement, display preferences, and the
// optional storage and monitor tiers.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the root of the TOML configuration file.
type Config struct {
	Fetch     FetchConfig               `toml:"fetch"`
	Providers map[string]ProviderConfig `toml:"providers"`
	Display   DisplayConfig             `toml:"display"`
	Store     StoreConfig               `toml:"store"`
	Monitor   MonitorConfig             `toml:"monitor"`
}

// FetchConfig controls the fetch pipeline and orchestrator.
type FetchConfig struct {
	Timeout              int `toml:"timeout"` // seconds, per-strategy attempt timeout
	MaxConcurrent        int `toml:"max_concurrent"`
	StaleThresholdMinutes int `toml:"stale_threshold_minutes"`
}

// ProviderConfig is the per-provider override block.
type ProviderConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// DisplayConfig controls terminal and JSON output.
type DisplayConfig struct {
	NoColor bool `toml:"no_color"`
	JSON    bool `toml:"json"`
}

// StoreConfig groups the optional persistence tiers.
type StoreConfig struct {
	BaseDir  string         `toml:"base_dir"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
}

// RedisConfig enables the distributed snapshot cache tier.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	TTLSecs  int    `toml:"ttl_secs"`
}

// PostgresConfig enables the fetch-history audit trail.
type PostgresConfig struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn"`
}

// MonitorConfig controls the optional HTTP monitor server.
type MonitorConfig struct {
	Enabled         bool   `toml:"enabled"`
	Addr            string `toml:"addr"`
	IntervalSeconds int    `toml:"interval_seconds"` // background fetch cadence feeding /stream and the metrics
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Fetch: FetchConfig{
			Timeout:               30,
			MaxConcurrent:         5,
			StaleThresholdMinutes: 60,
		},
		Providers: map[string]ProviderConfig{},
		Store: StoreConfig{
			Redis:    RedisConfig{TTLSecs: 300},
			Postgres: PostgresConfig{},
		},
		Monitor: MonitorConfig{Addr: "127.0.0.1:8080", IntervalSeconds: 60},
	}
}

// Load reads and validates a TOML configuration file at path. A missing
// file is not an error — callers get Default() instead, matching a
// zero-config first run.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the structural constraints on a loaded config.
func (c Config) Validate() error {
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %d", c.Fetch.Timeout)
	}
	if c.Fetch.MaxConcurrent <= 0 {
		return fmt.Errorf("fetch.max_concurrent must be positive, got %d", c.Fetch.MaxConcurrent)
	}
	if c.Fetch.StaleThresholdMinutes < 0 {
		return fmt.Errorf("fetch.stale_threshold_minutes cannot be negative, got %d", c.Fetch.StaleThresholdMinutes)
	}
	for name, p := range c.Providers {
		if p.Enabled && p.RPS < 0 {
			return fmt.Errorf("providers.%s.rps cannot be negative, got %f", name, p.RPS)
		}
	}
	if c.Store.Redis.Enabled && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required when store.redis.enabled is true")
	}
	if c.Store.Postgres.Enabled && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required when store.postgres.enabled is true")
	}
	if c.Monitor.IntervalSeconds < 0 {
		return fmt.Errorf("monitor.interval_seconds cannot be negative, got %d", c.Monitor.IntervalSeconds)
	}
	return nil
}

// IsProviderEnabled reports whether a provider should be fetched. A
// provider absent from the config is enabled by default — the config
// file is for overrides, not an allowlist.
func (c Config) IsProviderEnabled(name string) bool {
	p, ok := c.Providers[name]
	if !ok {
		return true
	}
	return p.Enabled
}
