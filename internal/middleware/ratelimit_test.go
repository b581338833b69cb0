package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/internal/ratelimit"
	"github.com/Proton-105/coinwatch-bot/internal/testutil"
	"github.com/Proton-105/coinwatch-bot/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRules(t *testing.T, cfg config.RateLimitConfig) *ratelimit.Rules {
	t.Helper()

	rules, err := ratelimit.NewRules(cfg)
	require.NoError(t, err)
	return rules
}

func countingHandler(calls *int) func(telebot.Context) error {
	return func(telebot.Context) error {
		*calls++
		return nil
	}
}

func TestRateLimitMiddleware_BlocksAfterLookupLimit(t *testing.T) {
	rules := newRules(t, config.RateLimitConfig{
		Enabled: true,
		PerUser: config.RateLimitRule{Limit: 10, Window: "1m"},
		Lookups: config.RateLimitRule{Limit: 2, Window: "1m"},
	})
	mw := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), rules, testLogger())

	calls := 0
	handler := mw.Handle(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		require.NoError(t, handler(testutil.NewMessage(1, 7, "/price btc")))
	}

	err := handler(testutil.NewMessage(1, 7, "/price eth"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRateLimit, apperrors.KindOf(err))
	assert.Equal(t, 2, calls)

	require.NoError(t, handler(testutil.NewMessage(1, 7, "/start")))
	assert.Equal(t, 3, calls)

	require.NoError(t, handler(testutil.NewMessage(1, 8, "/price btc")))
	assert.Equal(t, 4, calls)
}

func TestRateLimitMiddleware_WhitelistAndDisabled(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 1, Window: "1m"},
		Whitelist: []int64{7},
	}

	calls := 0
	handler := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), newRules(t, cfg), testLogger()).
		Handle(countingHandler(&calls))
	for i := 0; i < 3; i++ {
		require.NoError(t, handler(testutil.NewCallback(1, 7, "top")))
	}
	assert.Equal(t, 3, calls)

	cfg.Enabled = false
	cfg.Whitelist = nil
	calls = 0
	handler = NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), newRules(t, cfg), testLogger()).
		Handle(countingHandler(&calls))
	for i := 0; i < 3; i++ {
		require.NoError(t, handler(testutil.NewCallback(1, 9, "top")))
	}
	assert.Equal(t, 3, calls)
}

type brokenLimiter struct{}

func (brokenLimiter) Check(context.Context, string, int, time.Duration) (*ratelimit.Result, error) {
	return nil, errors.New("backend unavailable")
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	rules := newRules(t, config.RateLimitConfig{
		Enabled: true,
		PerUser: config.RateLimitRule{Limit: 1, Window: "1m"},
	})
	broken := ratelimit.NewAdaptiveLimiter(brokenLimiter{}, brokenLimiter{}, testLogger())

	calls := 0
	handler := NewRateLimitMiddleware(broken, rules, testLogger()).Handle(countingHandler(&calls))

	for i := 0; i < 3; i++ {
		require.NoError(t, handler(testutil.NewMessage(1, 7, "/top")))
	}
	assert.Equal(t, 3, calls)
}

func TestMetricsStatus(t *testing.T) {
	assert.Equal(t, "ok", status(nil))
	assert.Equal(t, "rate_limited", status(apperrors.NewRateLimitError(0)))
	assert.Equal(t, "error", status(errors.New("boom")))
}
