package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. SCHEDULER_DATABASE_DSN.
const EnvPrefix = "SCHEDULER"

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Reminders  ReminderConfig   `yaml:"reminders"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool" split_words:"true"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" split_words:"true"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" split_words:"true"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" split_words:"true"`

	// CORSOrigins lists the browser origins allowed to call the API.
	// Empty allows any origin without credentials.
	CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`

	CacheTTL time.Duration `yaml:"-" ignored:"true"`
}

// DatabaseConfig holds the database connection configuration.
//
// A DSN starting with "sqlite:" opens an embedded SQLite database; anything
// else is handed to the Postgres driver.
type DatabaseConfig struct {
	DSN                       string `yaml:"dsn"`
	MaxOpenConns              int    `yaml:"max_open_conns" split_words:"true"`
	MaxIdleConns              int    `yaml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetimeMinutes    int    `yaml:"conn_max_lifetime_minutes" split_words:"true"`
	LogLevel                  string `yaml:"log_level" split_words:"true"`
	EnableExclusionConstraint bool   `yaml:"enable_exclusion_constraint" split_words:"true"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ReminderConfig controls the reminder delivery loop.
type ReminderConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds" split_words:"true"`
	BatchSize       int  `yaml:"batch_size" split_words:"true"`
	MaxRetries      int  `yaml:"max_retries" split_words:"true"`

	Interval time.Duration `yaml:"-" ignored:"true"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key" split_words:"true"`
	PrivateKey string `yaml:"vapid_private_key" split_words:"true"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the reminder worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path, applies SCHEDULER_*
// environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 60
	}
	c.Server.CacheTTL = time.Duration(c.Server.CacheTTLSeconds) * time.Second

	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Reminders.IntervalSeconds <= 0 {
		c.Reminders.IntervalSeconds = 60
	}
	c.Reminders.Interval = time.Duration(c.Reminders.IntervalSeconds) * time.Second
	if c.Reminders.BatchSize <= 0 {
		c.Reminders.BatchSize = 100
	}
	if c.Reminders.MaxRetries <= 0 {
		c.Reminders.MaxRetries = 3
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.WorkerPool.Size <= 0 {
		c.WorkerPool.Size = 1
	}
}
