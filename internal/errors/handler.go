package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/pkg/logger"
	"github.com/Proton-105/coinwatch-bot/pkg/metrics"
)

const fallbackMessage = "Something went wrong. Please try again."

type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle logs err, reports it when severe, and returns the localized text to show the user.
func (h *Handler) Handle(ctx context.Context, err error, t i18n.Translator) string {
	if err == nil {
		return ""
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs := []slog.Attr{
			slog.String("code", appErr.Code),
			slog.String("kind", string(appErr.Kind)),
			slog.String("message", appErr.Error()),
			slog.String("severity", string(appErr.Severity)),
		}
		if appErr.Op != "" {
			attrs = append(attrs, slog.String("op", appErr.Op))
		}
		if appErr.Coin != "" {
			attrs = append(attrs, slog.String("coin", appErr.Coin))
		}
		if appErr.Status != 0 {
			attrs = append(attrs, slog.Int("status", appErr.Status))
		}
		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}

		level := slog.LevelError
		if appErr.Severity == SeverityLow {
			level = slog.LevelWarn
		}
		log.LogAttrs(ctx, level, "application error", attrs...)
		metrics.RecordError(string(appErr.Kind), string(appErr.Severity))

		if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
			h.sendToSentry(err)
		}

		return translate(t, appErr.UserMessage)
	}

	attrs := []slog.Attr{
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	log.LogAttrs(ctx, slog.LevelError, "unknown error", attrs...)
	metrics.RecordError(string(KindUnknown), string(SeverityHigh))

	if h.sentryEnabled {
		h.sendToSentry(err)
	}

	return translate(t, MsgGeneric)
}

func (h *Handler) sendToSentry(err error) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}

			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}

			if appErr.Op != "" {
				scope.SetTag("op", appErr.Op)
			}
		}

		sentry.CaptureException(err)
	})
}

func translate(t i18n.Translator, key string) string {
	if key == "" {
		key = MsgGeneric
	}

	if t == nil {
		return fallbackMessage
	}

	text := t.T(key)
	if text == "" || text == key {
		if generic := t.T(MsgGeneric); generic != "" && generic != MsgGeneric {
			return generic
		}
		return fallbackMessage
	}

	return text
}
