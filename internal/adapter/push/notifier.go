// Package push delivers the digest to a webhook-style push endpoint.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

// message is the POST body.
type message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Group string `json:"group,omitempty"`
}

// Notifier POSTs JSON messages to one endpoint.
type Notifier struct {
	url        string
	group      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNotifier creates a notifier for url; group is passed through to the
// endpoint to bucket messages.
func NewNotifier(url, group string, timeout time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		url:        url,
		group:      group,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Notify sends one message. Any 2xx status is a success.
func (n *Notifier) Notify(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(message{Title: title, Body: body, Group: n.group})
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: push request: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: push endpoint status %d", domain.ErrNetwork, resp.StatusCode)
	}
	return nil
}

// Load implements the pipeline loader contract for the published item.
func (n *Notifier) Load(ctx context.Context, item domain.FeedItem) error {
	if err := n.Notify(ctx, item.Title, item.Description); err != nil {
		return err
	}
	n.logger.Info("push notification sent", "guid", item.GUID)
	return nil
}

// Name labels the sink in logs and metrics.
func (n *Notifier) Name() string { return "push" }
