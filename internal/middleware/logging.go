package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Proton-105/coinwatch-bot/pkg/logger"
)

const correlationHeader = "X-Request-ID"

// RequestLogger tags each ops HTTP request with a correlation id and logs its outcome.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		ctx := logger.WithCorrelationID(c.Request.Context(), c.GetHeader(correlationHeader))
		c.Request = c.Request.WithContext(ctx)
		correlationID := logger.CorrelationIDFromContext(ctx)
		c.Header(correlationHeader, correlationID)

		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= 500 {
			level = slog.LevelWarn
		}

		log.Log(ctx, level, "handled http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("correlation_id", correlationID),
		)
	}
}
