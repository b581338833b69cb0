package middleware

import (
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		metrics.RecordCommand(handlers.ActionOf(c), status(err), time.Since(start))

		return err
	}
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperrors.KindOf(err) == apperrors.KindRateLimit:
		return "rate_limited"
	default:
		return "error"
	}
}
