package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/Proton-105/coinwatch-bot/internal/bot"
	"github.com/Proton-105/coinwatch-bot/internal/chart"
	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/internal/health"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/jobs"
	"github.com/Proton-105/coinwatch-bot/internal/lifecycle"
	"github.com/Proton-105/coinwatch-bot/internal/market"
	"github.com/Proton-105/coinwatch-bot/internal/middleware"
	"github.com/Proton-105/coinwatch-bot/internal/quote"
	"github.com/Proton-105/coinwatch-bot/internal/ratelimit"
	"github.com/Proton-105/coinwatch-bot/internal/server"
	"github.com/Proton-105/coinwatch-bot/internal/state"
	"github.com/Proton-105/coinwatch-bot/pkg/config"
	"github.com/Proton-105/coinwatch-bot/pkg/logger"
	"github.com/Proton-105/coinwatch-bot/pkg/metrics"
	"github.com/Proton-105/coinwatch-bot/pkg/redis"
)

const (
	backendRedis = "redis"
	userAgent    = "coinwatch-bot/1.0"
	sentryFlush  = 2 * time.Second
)

func main() {
	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(cfg, v); err != nil {
		slog.Error("coinwatch bot stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, v *viper.Viper) error {
	if cfg.Sentry.Enabled {
		environment := cfg.Sentry.Environment
		if environment == "" {
			environment = cfg.AppEnv
		}
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      environment,
			SampleRate:       cfg.Sentry.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(sentryFlush)
	}

	lg := logger.New(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   cfg.Logger.Compress,
		Sentry:     cfg.Sentry.Enabled,
	})
	defer func() { _ = lg.Close() }()

	log := lg.Logger
	slog.SetDefault(log)

	config.Watch(v, log, func(updated *config.Config) {
		if err := lg.SetLevel(updated.Logger.Level); err != nil {
			log.Warn("ignoring log level change", slog.Any("error", err))
		}
	})

	log.Info("starting coinwatch bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("session_backend", cfg.Session.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	translations, err := i18n.Load(cfg.I18n.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	shutdown := lifecycle.NewShutdown(log, cfg.Server.ShutdownTimeout)

	var rdb goredis.UniversalClient
	if cfg.Session.Backend == backendRedis || (cfg.RateLimit.Enabled && cfg.RateLimit.Backend == backendRedis) {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		rdb = client.Client
		shutdown.Register("redis", func(context.Context) error { return client.Close() })
	}

	var storage state.Storage = state.NewMemoryStorage(cfg.Session.TTL)
	if cfg.Session.Backend == backendRedis {
		storage = state.NewRedisStorage(rdb, log, cfg.Session.TTL)
	}
	fsm := state.NewStateMachine(storage, log)

	marketClient := market.NewClient(market.Options{
		BaseURL:   cfg.Market.BaseURL,
		APIKey:    cfg.Market.APIKey,
		UserAgent: userAgent,
		Timeout:   cfg.Market.Timeout,
		Logger:    log,
	})

	renderer := chart.NewRenderer()
	renderer.Days = cfg.Market.SeriesDays

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	lookups := quote.NewService(marketClient, renderer, translations, errHandler, log, quote.Options{
		SeriesDays: cfg.Market.SeriesDays,
		TopCount:   cfg.Market.TopCount,
	})

	rules, err := ratelimit.NewRules(cfg.RateLimit)
	if err != nil {
		return err
	}
	memoryLimiter := ratelimit.NewMemoryLimiter()
	var limiter ratelimit.Limiter = memoryLimiter
	var limiterRedis goredis.UniversalClient
	if cfg.RateLimit.Backend == backendRedis && rdb != nil {
		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb, log), memoryLimiter, log)
		limiterRedis = rdb
	}

	var rateLimit *middleware.RateLimitMiddleware
	if rules.Enabled() {
		rateLimit = middleware.NewRateLimitMiddleware(limiter, rules, log)
	}

	b, err := bot.New(cfg.Bot, bot.Dependencies{
		FSM:          fsm,
		Lookups:      lookups,
		Translations: translations,
		Errors:       errHandler,
		RateLimit:    rateLimit,
	}, log)
	if err != nil {
		return err
	}

	if err := b.PublishCommands(); err != nil {
		log.Warn("failed to publish bot commands", slog.Any("error", err))
	}

	scheduler := jobs.NewScheduler(log, time.Minute)
	for _, job := range []jobs.Job{
		jobs.SessionSweep(cfg.Jobs.SessionSweep, state.NewCleaner(storage, log, cfg.Session.TTL)),
		jobs.StateMetrics(cfg.Jobs.StateMetrics, metrics.NewStateCollector(fsm)),
		jobs.RateLimitCleanup(cfg.Jobs.RateLimitCleanup, ratelimit.NewCleaner(limiterRedis, memoryLimiter, log, rules.MaxWindow())),
	} {
		if err := scheduler.Register(job); err != nil {
			return err
		}
	}
	scheduler.Start()
	shutdown.Register("scheduler", scheduler.Stop)

	serverErr := make(chan error, 1)
	if cfg.Server.Enabled {
		checker := health.NewChecker(log)
		checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
		checker.AddCheck("market", health.NewMarketChecker(marketClient))
		if rdb != nil {
			checker.AddCheck("redis", health.NewRedisChecker(rdb))
		}

		ops := server.New(cfg.Server, cfg.AppEnv, checker, log)
		go func() { serverErr <- ops.ListenAndServe(ctx) }()
		shutdown.Register("ops server", func(hookCtx context.Context) error {
			select {
			case err := <-serverErr:
				return err
			case <-hookCtx.Done():
				return hookCtx.Err()
			}
		})
	}

	go b.Start()
	shutdown.Register("telegram bot", func(context.Context) error {
		b.Stop()
		return nil
	})

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("ops server: %w", err)
		}
		serverErr <- nil
		stop()
	}

	if err := shutdown.Execute(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}

	log.Info("coinwatch bot stopped")
	return runErr
}
