package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
)

// DigestTransformer implements Transformer using the domain summary builder.
type DigestTransformer struct {
	builder *domain.Builder
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a DigestTransformer. Pass a nil summarizer to list
// alerts verbatim.
func NewTransformer(policy domain.SummaryPolicy, summarizer domain.Summarizer, logger *slog.Logger, metrics *observability.Metrics) *DigestTransformer {
	return &DigestTransformer{
		builder: domain.NewBuilder(policy, summarizer, logger),
		logger:  logger,
		metrics: metrics,
	}
}

func (t *DigestTransformer) Transform(ctx context.Context, snap domain.Snapshot) (domain.Digest, error) {
	digest, mode := t.builder.Build(ctx, snap)
	if t.metrics != nil {
		t.metrics.AlertMode.WithLabelValues(string(mode)).Inc()
	}
	t.logger.Info("digest built",
		"run_id", snap.Run.ID,
		"alert_mode", mode,
		"body_chars", len([]rune(digest.Body)),
	)
	return digest, nil
}
