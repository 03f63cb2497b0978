package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Job is the Pushgateway job label for digest runs.
const Job = "weather_digest"

// Push sends every metric gathered from g to the Pushgateway at url. The job
// exits after one run, so metrics are pushed rather than scraped.
func Push(ctx context.Context, url string, g prometheus.Gatherer) error {
	if err := push.New(url, Job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
