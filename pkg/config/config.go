package config

import "time"

// Config holds runtime configuration for the exercise bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Catalog   CatalogConfig   `mapstructure:"catalog" validate:"required"`
	Locale    LocaleConfig    `mapstructure:"locale"`
	History   HistoryConfig   `mapstructure:"history"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode"` // "polling" or "webhook"
	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig configures the exercise catalog HTTP client.
type CatalogConfig struct {
	Host    string        `mapstructure:"host" validate:"required"`
	APIKey  string        `mapstructure:"api_key" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LocaleConfig configures the translation bundle store.
type LocaleConfig struct {
	Dir             string `mapstructure:"dir"`
	DefaultLanguage string `mapstructure:"default_language"`
	Watch           bool   `mapstructure:"watch"`
}

// HistoryConfig selects the request-history backend.
type HistoryConfig struct {
	Backend       string `mapstructure:"backend" validate:"omitempty,oneof=file postgres"`
	Path          string `mapstructure:"path"`
	DSN           string `mapstructure:"dsn"`
	MigrationsDir string `mapstructure:"migrations_dir"`
	Async         bool   `mapstructure:"async"`
}

// ServerConfig configures the metrics/health HTTP endpoint.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig configures structured logging output.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "text" or "json"
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// RedisConfig configures the optional Redis backend used for conversation
// state, sessions, rate limiting and callback deduplication.
type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// RateLimitConfig bounds per-user update frequency.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   int           `mapstructure:"per_user"`
	Window    time.Duration `mapstructure:"window"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Timeout == 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = 10 * time.Second
	}
	if c.Locale.Dir == "" {
		c.Locale.Dir = "locales"
	}
	if c.Locale.DefaultLanguage == "" {
		c.Locale.DefaultLanguage = "ru"
	}
	if c.History.Backend == "" {
		c.History.Backend = "file"
	}
	if c.History.Path == "" {
		c.History.Path = "history.jsonl"
	}
	if c.History.MigrationsDir == "" {
		c.History.MigrationsDir = "migrations"
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
	if c.RateLimit.PerUser == 0 {
		c.RateLimit.PerUser = 20
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
}
