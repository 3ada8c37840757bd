// Package config loads the editor configuration from JSON or TOML files and
// the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// History backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Duration is a time.Duration written as "30s" or "2m" in config files
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Timeouts bound each call to an external collaborator
type Timeouts struct {
	LLM         Duration `json:"llm,omitempty" toml:"llm,omitempty"`
	Fetch       Duration `json:"fetch,omitempty" toml:"fetch,omitempty"`
	Persistence Duration `json:"persistence,omitempty" toml:"persistence,omitempty"`
	Render      Duration `json:"render,omitempty" toml:"render,omitempty"`
}

// HistoryConfig selects where undo/redo timelines live
type HistoryConfig struct {
	Backend    string   `json:"backend,omitempty" toml:"backend,omitempty"`
	MaxEntries int      `json:"max_entries,omitempty" toml:"max_entries,omitempty"`
	TTL        Duration `json:"ttl,omitempty" toml:"ttl,omitempty"` // redis only
}

// CacheConfig configures the job posting cache
type CacheConfig struct {
	JobTTL Duration `json:"job_ttl,omitempty" toml:"job_ttl,omitempty"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr           string  `json:"addr,omitempty" toml:"addr,omitempty"`
	RateLimitRPS   float64 `json:"rate_limit_rps,omitempty" toml:"rate_limit_rps,omitempty"`
	RateLimitBurst int     `json:"rate_limit_burst,omitempty" toml:"rate_limit_burst,omitempty"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level      string `json:"level,omitempty" toml:"level,omitempty"`
	File       string `json:"file,omitempty" toml:"file,omitempty"` // JSON log file, rotated
	MaxSizeMB  int    `json:"max_size_mb,omitempty" toml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" toml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" toml:"max_age_days,omitempty"`
}

// Config represents the editor configuration. All fields are optional;
// missing values are filled by MergeWithDefaults.
type Config struct {
	UserID        string `json:"user_id,omitempty" toml:"user_id,omitempty"`               // Default user for CLI runs
	APIKey        string `json:"api_key,omitempty" toml:"api_key,omitempty"`               // Gemini API key
	DatabaseURL   string `json:"database_url,omitempty" toml:"database_url,omitempty"`     // PostgreSQL connection URL
	RedisURL      string `json:"redis_url,omitempty" toml:"redis_url,omitempty"`           // Redis URL for timelines
	SQLitePath    string `json:"sqlite_path,omitempty" toml:"sqlite_path,omitempty"`       // Local database file
	ArtifactsDir  string `json:"artifacts_dir,omitempty" toml:"artifacts_dir,omitempty"`   // Rendered previews and exports
	LaTeXTemplate string `json:"latex_template,omitempty" toml:"latex_template,omitempty"` // Custom export template file
	UseBrowser    bool   `json:"use_browser,omitempty" toml:"use_browser,omitempty"`       // Headless browser for SPA job boards
	UseModel      bool   `json:"use_model,omitempty" toml:"use_model,omitempty"`           // Ask the model when regex parsing is unsure
	Verbose       bool   `json:"verbose,omitempty" toml:"verbose,omitempty"`

	Timeouts Timeouts      `json:"timeouts,omitempty" toml:"timeouts,omitempty"`
	History  HistoryConfig `json:"history,omitempty" toml:"history,omitempty"`
	Cache    CacheConfig   `json:"cache,omitempty" toml:"cache,omitempty"`
	Server   ServerConfig  `json:"server,omitempty" toml:"server,omitempty"`
	Log      LogConfig     `json:"log,omitempty" toml:"log,omitempty"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		UserID:       "anonymous",
		SQLitePath:   filepath.Join(".resume-editor", "editor.db"),
		ArtifactsDir: "artifacts",
		Timeouts: Timeouts{
			LLM:         Duration(20 * time.Second),
			Fetch:       Duration(30 * time.Second),
			Persistence: Duration(5 * time.Second),
			Render:      Duration(10 * time.Second),
		},
		History: HistoryConfig{Backend: BackendMemory, MaxEntries: 100},
		Cache:   CacheConfig{JobTTL: Duration(6 * time.Hour)},
		Server:  ServerConfig{Addr: ":8080", RateLimitRPS: 5, RateLimitBurst: 10},
		Log:     LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 28},
	}
}

// LoadConfig loads configuration from a .json or .toml file
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Save writes the configuration as TOML
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overrides secrets and URLs from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	switch c.History.Backend {
	case "", BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config error: history backend 'redis' needs 'redis_url'")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: history backend 'postgres' needs 'database_url'")
		}
	default:
		return fmt.Errorf("config error: unknown history backend %q", c.History.Backend)
	}

	if c.History.MaxEntries < 0 {
		return fmt.Errorf("config error: 'history.max_entries' must be non-negative")
	}
	for name, d := range map[string]Duration{
		"llm":         c.Timeouts.LLM,
		"fetch":       c.Timeouts.Fetch,
		"persistence": c.Timeouts.Persistence,
		"render":      c.Timeouts.Render,
	} {
		if d < 0 {
			return fmt.Errorf("config error: 'timeouts.%s' must be non-negative", name)
		}
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("config error: rate limits must be non-negative")
	}
	if c.Log.Level != "" {
		switch strings.ToLower(c.Log.Level) {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("config error: unknown log level %q", c.Log.Level)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.UserID, defaults.UserID)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.RedisURL, defaults.RedisURL)
	mergeString(&result.SQLitePath, defaults.SQLitePath)
	mergeString(&result.ArtifactsDir, defaults.ArtifactsDir)

	mergeDuration(&result.Timeouts.LLM, defaults.Timeouts.LLM)
	mergeDuration(&result.Timeouts.Fetch, defaults.Timeouts.Fetch)
	mergeDuration(&result.Timeouts.Persistence, defaults.Timeouts.Persistence)
	mergeDuration(&result.Timeouts.Render, defaults.Timeouts.Render)

	mergeString(&result.History.Backend, defaults.History.Backend)
	if result.History.MaxEntries == 0 {
		result.History.MaxEntries = defaults.History.MaxEntries
	}
	mergeDuration(&result.History.TTL, defaults.History.TTL)
	mergeDuration(&result.Cache.JobTTL, defaults.Cache.JobTTL)

	mergeString(&result.Server.Addr, defaults.Server.Addr)
	if result.Server.RateLimitRPS == 0 {
		result.Server.RateLimitRPS = defaults.Server.RateLimitRPS
	}
	if result.Server.RateLimitBurst == 0 {
		result.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}

	mergeString(&result.Log.Level, defaults.Log.Level)
	mergeString(&result.Log.File, defaults.Log.File)
	if result.Log.MaxSizeMB == 0 {
		result.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
	if result.Log.MaxBackups == 0 {
		result.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if result.Log.MaxAgeDays == 0 {
		result.Log.MaxAgeDays = defaults.Log.MaxAgeDays
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeDuration(dst *Duration, def Duration) {
	if *dst == 0 {
		*dst = def
	}
}
