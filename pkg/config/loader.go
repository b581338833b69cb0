// Package config provides configuration loading and validation utilities.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("bot token is not configured: set TELEGRAM_BOT_TOKEN")

const defaultConfigDir = "./configs"

// Options override where configuration is read from.
type Options struct {
	Env       string
	ConfigDir string
	EnvFiles  []string
}

// Load reads configuration from YAML files and environment variables, validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	return LoadWithOptions(Options{EnvFiles: []string{".env.local", ".env"}})
}

// LoadWithOptions is Load with explicit sources.
func LoadWithOptions(opts Options) (*Config, *viper.Viper, error) {
	for _, file := range opts.EnvFiles {
		// missing env files are fine
		_ = godotenv.Load(file)
	}

	env := opts.Env
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	dir := opts.ConfigDir
	if dir == "" {
		dir = defaultConfigDir
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("bot.token", "TELEGRAM_BOT_TOKEN", "BOT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	cfg.AppEnv = env

	if err := Validate(cfg); err != nil {
		return nil, nil, err
	}

	return cfg, v, nil
}

// Validate checks cfg, mapping a missing token to ErrMissingToken.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.StructNamespace() == "Config.Bot.Token" {
					return ErrMissingToken
				}
			}
		}
		return fmt.Errorf("validate config: %w", err)
	}

	return nil
}

// Watch re-reads the config file on change and passes valid results to onChange.
// It does nothing when no config file was found.
func Watch(v *viper.Viper, log *slog.Logger, onChange func(*Config)) {
	if v == nil || v.ConfigFileUsed() == "" || onChange == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err == nil {
			err = Validate(cfg)
		}
		if err != nil {
			log.Warn("ignoring invalid config change", slog.String("file", e.Name), slog.Any("error", err))
			return
		}

		log.Info("config reloaded", slog.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.timeout", "10s")
	v.SetDefault("bot.webhook_listen", "")
	v.SetDefault("bot.webhook_url", "")

	v.SetDefault("market.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.api_key", "")
	v.SetDefault("market.timeout", "0s")
	v.SetDefault("market.series_days", 7)
	v.SetDefault("market.top_count", 10)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "1h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.pool_timeout", "4s")
	v.SetDefault("redis.idle_timeout", "5m")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.min_retry_backoff", "8ms")
	v.SetDefault("redis.max_retry_backoff", "512ms")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.per_user.limit", 30)
	v.SetDefault("ratelimit.per_user.window", "1m")
	v.SetDefault("ratelimit.lookups.limit", 10)
	v.SetDefault("ratelimit.lookups.window", "1m")
	v.SetDefault("ratelimit.whitelist", []int64{})

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":9090")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("jobs.session_sweep", "@every 5m")
	v.SetDefault("jobs.state_metrics", "@every 1m")
	v.SetDefault("jobs.ratelimit_cleanup", "@every 10m")

	v.SetDefault("i18n.default_language", "en")
}
