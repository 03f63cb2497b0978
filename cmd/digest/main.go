// Command digest runs one weather digest: it fetches forecasts and alerts,
// renders the summary and replaces the RSS feed file. It is meant to be
// started by an external scheduler and exits non-zero on a fatal error.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/weather-digest/internal/adapter/ark"
	"github.com/couchcryptid/weather-digest/internal/adapter/cwa"
	kafkaadapter "github.com/couchcryptid/weather-digest/internal/adapter/kafka"
	"github.com/couchcryptid/weather-digest/internal/adapter/push"
	"github.com/couchcryptid/weather-digest/internal/adapter/qweather"
	"github.com/couchcryptid/weather-digest/internal/adapter/rss"
	"github.com/couchcryptid/weather-digest/internal/config"
	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
	"github.com/couchcryptid/weather-digest/internal/pipeline"
)

const failureTitle = "天气快讯生成失败"

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; the environment wins over the file.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notifier *push.Notifier
	if cfg.PushURL != "" {
		notifier = push.NewNotifier(cfg.PushURL, cfg.PushGroup, cfg.HTTPTimeout, logger)
	}

	p, closeSinks, err := build(cfg, logger, metrics, notifier)
	if err != nil {
		logger.Error("failed to initialize digest", "error", err)
		reportFailure(cfg, logger, notifier, err)
		return 1
	}
	defer closeSinks()

	runErr := p.Run(ctx)
	pushMetrics(cfg, logger)

	if runErr != nil {
		reportFailure(cfg, logger, notifier, runErr)
		return 1
	}
	return 0
}

// build wires the pipeline. The returned func closes the sinks that hold
// connections.
func build(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, notifier *push.Notifier) (*pipeline.Pipeline, func(), error) {
	signer, err := qweather.NewSigner(cfg.QWeatherCredentialID, cfg.QWeatherProjectID, cfg.QWeatherPrivateKeyPath, nil)
	if err != nil {
		return nil, nil, err
	}

	forecasts := qweather.NewClient(qweather.Options{
		Host:             cfg.QWeatherHost,
		Lang:             cfg.QWeatherLang,
		Timeout:          cfg.HTTPTimeout,
		FailureThreshold: cfg.Digest.BreakerFailures,
	}, signer, metrics)

	cities := cfg.Cities()
	sources := []domain.AlertSource{
		qweather.NewWarningSource(forecasts, warningRegions(cfg), logger),
	}
	if cfg.CWAAPIKey != "" {
		c := cwa.NewClient(cfg.CWABaseURL, cfg.CWAAPIKey, cfg.HTTPTimeout, cfg.Digest.BreakerFailures, metrics)
		sources = append(sources,
			cwa.NewWarningSource(c, cities, logger),
			cwa.NewTyphoonSource(c, logger),
			cwa.NewRainfallSource(c, cities, cwa.RainThresholds{
				OneHour:    cfg.Digest.Rain.OneHourMM,
				TwentyFour: cfg.Digest.Rain.TwentyFourHourMM,
			}, logger),
			cwa.NewWindSource(c, cities, cwa.WindThresholds{
				Sustained: cfg.Digest.Wind.SustainedMS,
				Gust:      cfg.Digest.Wind.GustMS,
			}, logger),
		)
	} else {
		logger.Info("cwa alerts disabled")
	}

	var summarizer domain.Summarizer
	if cfg.SummarizerEnabled() {
		summarizer = ark.NewSummarizer(cfg.ArkAPIKey, cfg.ArkBaseURL, cfg.ArkModel, cfg.SummarizerTimeout)
	} else {
		logger.Info("alert summarization disabled")
	}

	feed := rss.NewWriter(cfg.FeedPath, rss.ChannelInfo{Link: cfg.FeedLink}, logger, metrics)

	var sinks []pipeline.Sink
	closeSinks := func() {}
	if cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaFeedTopic, logger)
		sinks = append(sinks, w)
		closeSinks = func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
	}
	if notifier != nil {
		sinks = append(sinks, notifier)
	}

	p := pipeline.New(
		pipeline.NewFetcher(forecasts, cities, sources, logger, metrics),
		pipeline.NewTransformer(cfg.SummaryPolicy(), summarizer, logger, metrics),
		feed,
		sinks,
		nil,
		cfg.Location,
		logger,
		metrics,
	)
	return p, closeSinks, nil
}

func warningRegions(cfg *config.Config) []qweather.Region {
	regions := cfg.AlertRegions()
	out := make([]qweather.Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, qweather.Region{Name: r.Name, LocationID: r.LocationID})
	}
	return out
}

// reportFailure sends the fatal error through the notifier. It uses its own
// context so an interrupted run can still be reported.
func reportFailure(cfg *config.Config, logger *slog.Logger, notifier *push.Notifier, runErr error) {
	if notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), graceTimeout(cfg))
	defer cancel()
	if err := notifier.Notify(ctx, failureTitle, runErr.Error()); err != nil {
		logger.Warn("failure notification not sent", "error", err)
	}
}

func pushMetrics(cfg *config.Config, logger *slog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), graceTimeout(cfg))
	defer cancel()
	if err := observability.Push(ctx, cfg.PushgatewayURL, prometheus.DefaultGatherer); err != nil {
		logger.Warn("metrics push failed", "error", err)
	}
}

func graceTimeout(cfg *config.Config) time.Duration {
	if cfg.ShutdownTimeout > 0 {
		return cfg.ShutdownTimeout
	}
	return 10 * time.Second
}
