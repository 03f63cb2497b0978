// Command preview serves the generated feed locally at /weather.xml, next to
// /healthz, /readyz and /metrics. Readiness fails until the feed file holds
// exactly one item. /metrics carries the digest families; the feed gauges
// follow the served file and run counters stay at zero.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/weather-digest/internal/adapter/httpadapter"
	"github.com/couchcryptid/weather-digest/internal/adapter/rss"
	"github.com/couchcryptid/weather-digest/internal/config"
	"github.com/couchcryptid/weather-digest/internal/observability"
)

func main() {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Only the settings the preview needs; the QWeather credentials are not
	// required to serve a file.
	cfg := &config.Config{
		FeedPath:    sharedcfg.EnvOrDefault("FEED_PATH", "docs/weather.xml"),
		PreviewAddr: sharedcfg.EnvOrDefault("PREVIEW_ADDR", ":8080"),
		LogLevel:    strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "text")),
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	srv := httpadapter.NewServer(cfg.PreviewAddr, cfg.FeedPath, rss.NewChecker(cfg.FeedPath), logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
