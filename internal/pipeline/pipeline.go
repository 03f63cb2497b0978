package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
)

// Extractor gathers the snapshot for one run.
type Extractor interface {
	Extract(ctx context.Context, run domain.Run) (domain.Snapshot, error)
}

// Transformer renders a snapshot into a digest.
type Transformer interface {
	Transform(ctx context.Context, snap domain.Snapshot) (domain.Digest, error)
}

// Loader publishes the feed item.
type Loader interface {
	Load(ctx context.Context, item domain.FeedItem) error
}

// Sink is an optional Loader whose failures do not fail the run.
type Sink interface {
	Loader
	Name() string
}

// Pipeline runs extract-transform-load once per invocation.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	feed        Loader
	sinks       []Sink
	clock       clockwork.Clock
	location    *time.Location
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline. The feed loader is required; sinks run after it in
// order. A nil metrics disables recording.
func New(e Extractor, t Transformer, feed Loader, sinks []Sink, clock clockwork.Clock, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		feed:        feed,
		sinks:       sinks,
		clock:       clock,
		location:    loc,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes one complete run. It returns an error when the snapshot could
// not be built, the digest could not be rendered, or the feed file could not be
// written.
func (p *Pipeline) Run(ctx context.Context) error {
	run := domain.Run{
		ID:        uuid.NewString(),
		StartedAt: p.clock.Now(),
		Location:  p.location,
	}
	logger := p.logger.With("run_id", run.ID)
	logger.Info("run started", "started_at", run.StartedAt.Format(time.RFC3339))

	item, err := p.process(ctx, run, logger)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RunsTotal.WithLabelValues("failure").Inc()
		}
		logger.Error("run failed", "error", err)
		return err
	}

	p.loadSinks(ctx, item, logger)

	elapsed := p.clock.Since(run.StartedAt)
	if p.metrics != nil {
		p.metrics.RunsTotal.WithLabelValues("success").Inc()
		p.metrics.RunDuration.Observe(elapsed.Seconds())
		p.metrics.LastSuccessSeconds.Set(float64(p.clock.Now().Unix()))
	}
	logger.Info("run complete", "guid", item.GUID, "duration", elapsed)
	return nil
}

func (p *Pipeline) process(ctx context.Context, run domain.Run, logger *slog.Logger) (domain.FeedItem, error) {
	snap, err := p.extractor.Extract(ctx, run)
	if err != nil {
		return domain.FeedItem{}, fmt.Errorf("extract: %w", err)
	}
	if failed := snap.Failures(); len(failed) > 0 {
		logger.Warn("snapshot is partial", "failed_calls", len(failed), "total_calls", len(snap.Outcomes))
	}

	digest, err := p.transformer.Transform(ctx, snap)
	if err != nil {
		return domain.FeedItem{}, fmt.Errorf("transform: %w", err)
	}

	item := domain.NewFeedItem(digest, run.StartedAt)
	if err := p.feed.Load(ctx, item); err != nil {
		return domain.FeedItem{}, fmt.Errorf("write feed: %w", err)
	}
	return item, nil
}

// loadSinks publishes to every optional sink; failures are logged and counted.
func (p *Pipeline) loadSinks(ctx context.Context, item domain.FeedItem, logger *slog.Logger) {
	for _, s := range p.sinks {
		if err := s.Load(ctx, item); err != nil {
			if p.metrics != nil {
				p.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			}
			logger.Warn("sink failed, continuing", "sink", s.Name(), "error", err)
		}
	}
}
