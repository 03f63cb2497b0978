// Package upstream is the shared HTTP transport for the forecast and alert
// providers. It decodes gzip bodies, records request metrics and keeps one
// circuit breaker per target.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
)

// maxBodyBytes bounds how much of an error body is quoted in an error message.
const maxBodyBytes = 512

// Client executes GET requests against one provider.
type Client struct {
	name             string
	httpClient       *http.Client
	failureThreshold uint32
	metrics          *observability.Metrics

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a client for the named provider. Breakers are kept per target
// (a location id or dataset), so a failing city never short-circuits calls for
// another one. After failureThreshold consecutive failures on one target its
// circuit opens for the rest of the run; zero disables tripping.
func New(name string, timeout time.Duration, failureThreshold uint32, metrics *observability.Metrics) *Client {
	return &Client{
		name:             name,
		httpClient:       &http.Client{Timeout: timeout},
		failureThreshold: failureThreshold,
		metrics:          metrics,
		breakers:         make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *Client) breaker(target string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[target]; ok {
		return cb
	}
	threshold := c.failureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        c.name + "/" + target,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
	})
	c.breakers[target] = cb
	return cb
}

// Name is the provider name.
func (c *Client) Name() string { return c.name }

// GetJSON runs req and decodes the JSON body into out. endpoint labels the
// call in metrics; target selects the circuit breaker. Every failure wraps
// domain.ErrNetwork.
func (c *Client) GetJSON(ctx context.Context, req *http.Request, endpoint, target string, out any) error {
	source := c.name + "." + endpoint
	start := time.Now()

	_, err := c.breaker(target).Execute(func() (interface{}, error) {
		return nil, c.do(req.WithContext(ctx), out)
	})

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.UpstreamRequests.WithLabelValues(source, outcome).Inc()
	}

	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s circuit open for %s: %w", domain.ErrNetwork, c.name, target, err)
	}
	if errors.Is(err, domain.ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrNetwork, source, err)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := decodedBody(resp)
	if err != nil {
		return err
	}
	defer body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(body, maxBodyBytes))
		return fmt.Errorf("%s: status %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// decodedBody unwraps a gzip body. The transport only decompresses
// transparently when it added Accept-Encoding itself, which it does not here.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return io.NopCloser(resp.Body), nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gzip body: %w", err)
	}
	return zr, nil
}
