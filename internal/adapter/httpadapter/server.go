package httpadapter

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-digest/internal/observability"
)

// FeedRoute is where the preview server publishes the feed file.
const FeedRoute = "/weather.xml"

const feedContentType = "application/rss+xml; charset=utf-8"

// Server serves the generated feed next to health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	feedPath   string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with /weather.xml, /healthz, /readyz, and
// /metrics routes. The feed file is read on every request so a fresh run is
// visible without a restart. When metrics is set, each feed request refreshes
// the feed size and last-success gauges from the file.
func NewServer(addr, feedPath string, ready sharedobs.ReadinessChecker, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		feedPath: feedPath,
		logger:   logger,
		metrics:  metrics,
	}

	mux.HandleFunc("GET "+FeedRoute, s.handleFeed)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(s.feedPath)
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "feed not generated yet", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("open feed", "path", s.feedPath, "error", err)
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.Error("stat feed", "path", s.feedPath, "error", err)
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}

	if s.metrics != nil {
		s.metrics.FeedBytes.Set(float64(info.Size()))
		s.metrics.LastSuccessSeconds.Set(float64(info.ModTime().Unix()))
	}

	w.Header().Set("Content-Type", feedContentType)
	http.ServeContent(w, r, FeedRoute, info.ModTime(), f)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("preview server starting", "addr", s.httpServer.Addr, "feed", s.feedPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
