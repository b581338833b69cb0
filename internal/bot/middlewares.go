package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/handlers"
	errors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/quote"
	"github.com/Proton-105/coinwatch-bot/pkg/logger"
)

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler, translations *i18n.Manager) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					appErr := errors.NewUnknownError(handlers.ActionOf(c), "", fmt.Errorf("panic recovered: %v", r))
					userMsg := userMessage(handlers.RequestContext(c), errHandler, translations, c, appErr)

					if c != nil {
						if sendErr := quote.NewResponder(c).Reply(userMsg, nil); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *errors.Handler, translations *i18n.Manager) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userMsg := userMessage(handlers.RequestContext(c), errHandler, translations, c, err)
			if c != nil {
				_ = quote.NewResponder(c).Reply(userMsg, nil)
			}

			return nil
		}
	}
}

// LoggingMiddleware tags the update with a correlation id and logs its handling.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()

			ctx := logger.WithCorrelationID(handlers.RequestContext(c), "")
			handlers.WithContext(c, ctx)

			session := handlers.SessionOf(c)
			attrs := []any{
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.Int64("chat_id", session.ChatID),
				slog.Int64("user_id", session.UserID),
				slog.String("action", handlers.ActionOf(c)),
			}

			log.InfoContext(ctx, "handling update", attrs...)
			err := next(c)
			log.InfoContext(ctx, "handled update", append(attrs,
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)...)

			return err
		}
	}
}

func userMessage(ctx context.Context, errHandler *errors.Handler, translations *i18n.Manager, c telebot.Context, err error) string {
	t := handlers.TranslatorFor(translations, c)

	if errHandler != nil {
		if msg := errHandler.Handle(ctx, err, t); msg != "" {
			return msg
		}
	}

	return t.T(errors.MsgGeneric)
}
