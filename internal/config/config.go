// Package config holds the persistent settings for hackerstories, read from
// ~/.hackerstories/config.yaml with HS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/hackerstories/internal/session"
)

// Config is the persistent application configuration
type Config struct {
	Fetch   FetchConfig   `yaml:"fetch"`
	Cache   CacheConfig   `yaml:"cache"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// FetchConfig configures the Algolia client.
type FetchConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"` // 0 disables pacing
	UserAgent     string        `yaml:"user_agent"`
}

// CacheConfig configures the SQLite page cache.
type CacheConfig struct {
	Path string        `yaml:"path"` // ":memory:" keeps pages for this run only
	TTL  time.Duration `yaml:"ttl"`
}

// SessionConfig holds search session behaviour.
type SessionConfig struct {
	InitialTerm string `yaml:"initial_term"`
	RecentLimit int    `yaml:"recent_limit"`
}

// LogConfig holds diagnostic log settings.
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// MetricsConfig controls the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			Endpoint:      "https://hn.algolia.com/api/v1/search",
			Timeout:       30 * time.Second,
			RatePerSecond: 5,
			UserAgent:     "hackerstories/0.1 (+https://github.com/abelbrown/hackerstories)",
		},
		Cache: CacheConfig{
			Path: ":memory:",
			TTL:  5 * time.Minute,
		},
		Session: SessionConfig{
			InitialTerm: "React",
			RecentLimit: session.MaxRecent,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   filepath.Join(Dir(), "logs"),
		},
	}
}

// Dir is the application's data directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hackerstories")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// EventLogPath is where the JSONL event log is written.
func EventLogPath() string {
	return filepath.Join(Dir(), "events.jsonl")
}

// Load reads the config file, falling back to defaults when it does not
// exist, then applies environment overrides and validates the result.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom is Load with an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnv overrides fields from HS_* variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("HS_ENDPOINT"); v != "" {
		c.Fetch.Endpoint = v
	}
	if v := os.Getenv("HS_INITIAL_TERM"); v != "" {
		c.Session.InitialTerm = v
	}
	if v := os.Getenv("HS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HS_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("HS_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("HS_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("HS_RATE: %w", err)
		}
		c.Fetch.RatePerSecond = r
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Fetch.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("fetch.endpoint %q is not an absolute URL", c.Fetch.Endpoint))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout))
	}
	if c.Fetch.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("fetch.rate_per_second must not be negative, got %g", c.Fetch.RatePerSecond))
	}
	if c.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path must not be empty"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL))
	}
	if c.Session.RecentLimit < 1 || c.Session.RecentLimit > session.MaxRecent {
		errs = append(errs, fmt.Errorf("session.recent_limit must be in 1..%d, got %d", session.MaxRecent, c.Session.RecentLimit))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return errors.Join(errs...)
}
