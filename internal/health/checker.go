// Package health reports whether the bot's dependencies are reachable.
package health

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/telebot.v3"
)

const (
	StatusOK        = "OK"
	defaultDeadline = 3 * time.Second
)

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

type namedCheck struct {
	name  string
	check Checkable
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	log     *slog.Logger
	checks  []namedCheck
	timeout time.Duration
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}

	return &Checker{
		log:     log,
		timeout: defaultDeadline,
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// Names lists registered components in sorted order.
func (c *Checker) Names() []string {
	names := make([]string, 0, len(c.checks))
	for _, nc := range c.checks {
		names = append(names, nc.name)
	}
	sort.Strings(names)
	return names
}

// Check runs all registered health checks and returns their statuses.
// The second result is false when any check failed.
func (c *Checker) Check(ctx context.Context) (map[string]string, bool) {
	results := make(map[string]string, len(c.checks))
	healthy := true

	for _, nc := range c.checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := nc.check.HealthCheck(checkCtx)
		cancel()

		if err != nil {
			healthy = false
			results[nc.name] = err.Error()
			c.log.Error("health check failed", slog.String("component", nc.name), slog.Any("error", err))
			continue
		}

		results[nc.name] = StatusOK
	}

	return results, healthy
}

// Pinger abstracts the subset of redis.Client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies connectivity to a Redis instance.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker constructs a RedisChecker.
func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

// HealthCheck issues a PING command against Redis.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}
	return c.pinger.Ping(ctx).Err()
}

// TelegramChecker verifies that the bot has authenticated with Telegram.
type TelegramChecker struct {
	bot *telebot.Bot
}

// NewTelegramChecker constructs a TelegramChecker.
func NewTelegramChecker(bot *telebot.Bot) *TelegramChecker {
	return &TelegramChecker{bot: bot}
}

// HealthCheck ensures the underlying bot is initialized.
func (c *TelegramChecker) HealthCheck(context.Context) error {
	if c == nil || c.bot == nil || c.bot.Me == nil {
		return errors.New("telegram bot is not initialized")
	}
	return nil
}

// MarketPinger is the market client's reachability probe.
type MarketPinger interface {
	Ping(ctx context.Context) error
}

// NewMarketChecker reports whether the market data API answers.
func NewMarketChecker(pinger MarketPinger) Checkable {
	return CheckFunc(func(ctx context.Context) error {
		if pinger == nil {
			return errors.New("market client is not configured")
		}
		return pinger.Ping(ctx)
	})
}
