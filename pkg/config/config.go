package config

import (
	"time"

	"github.com/Proton-105/coinwatch-bot/pkg/redis"
)

// Config holds runtime configuration for the coinwatch bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot"`
	Market    MarketConfig    `mapstructure:"market"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     redis.Config    `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	I18n      I18nConfig      `mapstructure:"i18n"`
}

// BotConfig configures the Telegram connection.
type BotConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	Mode          string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout       time.Duration `mapstructure:"timeout"`
	WebhookListen string        `mapstructure:"webhook_listen" validate:"required_if=Mode webhook"`
	WebhookURL    string        `mapstructure:"webhook_url" validate:"omitempty,url"`
}

// MarketConfig configures the market-data API client.
type MarketConfig struct {
	BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	SeriesDays int           `mapstructure:"series_days" validate:"min=1,max=365"`
	TopCount   int           `mapstructure:"top_count" validate:"min=1,max=100"`
}

// SessionConfig selects where conversation sessions live.
type SessionConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// RateLimitRule is a limit of requests per window, e.g. 20 per "1m".
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures per-user throttling.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Backend   string        `mapstructure:"backend" validate:"oneof=memory redis"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Lookups   RateLimitRule `mapstructure:"lookups"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// JobsConfig holds cron specs for background jobs. An empty spec disables the job.
type JobsConfig struct {
	SessionSweep     string `mapstructure:"session_sweep"`
	StateMetrics     string `mapstructure:"state_metrics"`
	RateLimitCleanup string `mapstructure:"ratelimit_cleanup"`
}

// I18nConfig configures localisation.
type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language" validate:"required"`
}
