package cwa

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/weather-digest/internal/adapter/upstream"
	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
)

// DefaultBaseURL is the CWA open data datastore root.
const DefaultBaseURL = "https://opendata.cwa.gov.tw/api/v1/rest/datastore"

// Dataset ids.
const (
	datasetHazards  = "W-C0033-001"
	datasetTyphoon  = "W-C0034-005"
	datasetRainfall = "O-A0002-001"
	datasetStations = "O-A0001-001"
)

// Client reads CWA open data datasets with a static API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *upstream.Client
}

// NewClient creates a CWA client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, failureThreshold uint32, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    upstream.New("cwa", timeout, failureThreshold, metrics),
	}
}

func (c *Client) dataset(ctx context.Context, id, endpoint string, out interface{ ok() bool }) error {
	q := url.Values{"Authorization": {c.apiKey}, "format": {"JSON"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+id+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", domain.ErrNetwork, err)
	}
	if err := c.http.GetJSON(ctx, req, endpoint, id, out); err != nil {
		return err
	}
	if !out.ok() {
		return fmt.Errorf("%w: cwa %s reported failure", domain.ErrNetwork, id)
	}
	return nil
}

// countyIndex maps CWA county names to the configured city names.
func countyIndex(cities []domain.City) map[string]string {
	idx := make(map[string]string, len(cities))
	for _, c := range cities {
		if c.County != "" {
			idx[c.County] = c.Name
		}
	}
	return idx
}
