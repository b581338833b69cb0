// Package middleware holds cross-cutting wrappers for bot handlers and the ops HTTP server.
package middleware

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/internal/ratelimit"
	"github.com/Proton-105/coinwatch-bot/pkg/metrics"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
	now     func() time.Time
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
		now:     time.Now,
	}
}

// Handle rejects the update with a rate limit error once any applicable rule is exhausted.
// Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil || m.rules.IsWhitelisted(sender.ID) {
			return next(c)
		}

		ctx := handlers.RequestContext(c)
		action := handlers.ActionOf(c)

		for _, rule := range m.rules.For(action) {
			key := fmt.Sprintf("%s:%d", rule.Name, sender.ID)

			result, err := m.limiter.Check(ctx, key, rule.Limit, rule.Window)
			if err != nil {
				m.log.WarnContext(ctx, "rate limiter error", slog.Int64("user_id", sender.ID), slog.Any("error", err))
				continue
			}

			if !result.Allowed {
				retryAfter := result.RetryAfter(m.now())
				m.log.WarnContext(ctx, "rate limit exceeded",
					slog.Int64("user_id", sender.ID),
					slog.String("rule", rule.Name),
					slog.String("action", action),
					slog.Duration("retry_after", retryAfter),
				)
				metrics.RecordRateLimited()
				return apperrors.NewRateLimitError(retryAfter)
			}
		}

		return next(c)
	}
}
