// Package server exposes health probes and Prometheus metrics over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/coinwatch-bot/internal/health"
	"github.com/Proton-105/coinwatch-bot/internal/middleware"
	"github.com/Proton-105/coinwatch-bot/pkg/config"
	"github.com/Proton-105/coinwatch-bot/pkg/graceful"
)

// NewRouter builds the ops HTTP routes.
func NewRouter(checker *health.Checker, log *slog.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/readyz", func(c *gin.Context) {
		results, healthy := checker.Check(c.Request.Context())

		status := http.StatusOK
		label := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}

		c.JSON(status, gin.H{"status": label, "checks": results})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return engine
}

// New returns the ops server configured by cfg.
func New(cfg config.ServerConfig, appEnv string, checker *health.Checker, log *slog.Logger) *graceful.Server {
	if appEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	return graceful.NewServer(log, cfg.Addr, NewRouter(checker, log), cfg.ShutdownTimeout)
}
