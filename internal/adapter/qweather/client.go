package qweather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-digest/internal/adapter/upstream"
	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
)

const (
	// ProviderName labels QWeather calls in outcomes and metrics.
	ProviderName = "qweather"

	fxTimeLayout      = "2006-01-02T15:04Z07:00"
	clothingIndexType = "3"
	okCode            = "200"
)

// TokenSource supplies a bearer token for each request.
type TokenSource interface {
	Token() (string, error)
}

// Options configures a Client.
type Options struct {
	Host             string // API host, e.g. abc123.qweatherapi.com; a full URL is used as-is
	Lang             string
	Timeout          time.Duration
	FailureThreshold uint32
}

// Client calls the QWeather v7 and GeoAPI endpoints.
type Client struct {
	baseURL string
	lang    string
	tokens  TokenSource
	http    *upstream.Client
}

// NewClient creates a QWeather client that signs every request with tokens.
func NewClient(opts Options, tokens TokenSource, metrics *observability.Metrics) *Client {
	base := opts.Host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		lang:    opts.Lang,
		tokens:  tokens,
		http:    upstream.New(ProviderName, opts.Timeout, opts.FailureThreshold, metrics),
	}
}

// Hourly returns the 24-hour forecast for a location.
func (c *Client) Hourly(ctx context.Context, locationID string) ([]domain.HourlyEntry, error) {
	var resp hourlyResponse
	if err := c.get(ctx, "/v7/weather/24h", "hourly", url.Values{"location": {locationID}}, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.HourlyEntry, 0, len(resp.Hourly))
	for _, h := range resp.Hourly {
		t, err := time.Parse(fxTimeLayout, h.FxTime)
		if err != nil {
			return nil, fmt.Errorf("%w: hourly fxTime %q: %w", domain.ErrNetwork, h.FxTime, err)
		}
		temp, err := parseInt("hourly temp", h.Temp)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.HourlyEntry{Time: t, Text: h.Text, Temp: temp})
	}
	return entries, nil
}

// Daily returns the 7-day forecast for a location.
func (c *Client) Daily(ctx context.Context, locationID string) ([]domain.DailyEntry, error) {
	var resp dailyResponse
	if err := c.get(ctx, "/v7/weather/7d", "daily", url.Values{"location": {locationID}}, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.DailyEntry, 0, len(resp.Daily))
	for _, d := range resp.Daily {
		tMin, err := parseInt("daily tempMin", d.TempMin)
		if err != nil {
			return nil, err
		}
		tMax, err := parseInt("daily tempMax", d.TempMax)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.DailyEntry{
			Date:      d.FxDate,
			TextDay:   d.TextDay,
			TextNight: d.TextNight,
			TempMin:   tMin,
			TempMax:   tMax,
		})
	}
	return entries, nil
}

// Clothing returns today's clothing index. A location without an index yields
// a zero LifeIndex.
func (c *Client) Clothing(ctx context.Context, locationID string) (domain.LifeIndex, error) {
	var resp indicesResponse
	q := url.Values{"location": {locationID}, "type": {clothingIndexType}}
	if err := c.get(ctx, "/v7/indices/1d", "indices", q, &resp); err != nil {
		return domain.LifeIndex{}, err
	}
	if len(resp.Daily) == 0 {
		return domain.LifeIndex{}, nil
	}
	return domain.LifeIndex{Category: resp.Daily[0].Category, Text: resp.Daily[0].Text}, nil
}

// Warnings returns the active warnings for a location.
func (c *Client) Warnings(ctx context.Context, locationID string) ([]Warning, error) {
	var resp warningResponse
	if err := c.get(ctx, "/v7/warning/now", "warning", url.Values{"location": {locationID}}, &resp); err != nil {
		return nil, err
	}

	out := make([]Warning, 0, len(resp.Warning))
	for _, w := range resp.Warning {
		out = append(out, Warning{
			ID:       w.ID,
			Title:    w.Title,
			Text:     w.Text,
			TypeName: w.TypeName,
			Severity: w.Severity,
		})
	}
	return out, nil
}

// LookupLocation resolves a city name to its location id.
func (c *Client) LookupLocation(ctx context.Context, name string) (string, error) {
	var resp geoResponse
	q := url.Values{"location": {name}, "number": {"1"}}
	if err := c.get(ctx, "/geo/v2/city/lookup", "geo", q, &resp); err != nil {
		return "", err
	}
	if len(resp.Location) == 0 || resp.Location[0].ID == "" {
		return "", fmt.Errorf("%w: no location matches %q", domain.ErrNetwork, name)
	}
	return resp.Location[0].ID, nil
}

// get signs and executes one request. A signing failure is returned as is so
// that it aborts the run; everything else wraps domain.ErrNetwork.
func (c *Client) get(ctx context.Context, path, endpoint string, q url.Values, out interface{ code() string }) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	// The location keys the circuit breaker, so one city's failures never
	// short-circuit another city.
	target := q.Get("location")
	if c.lang != "" {
		q.Set("lang", c.lang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", domain.ErrNetwork, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if err := c.http.GetJSON(ctx, req, endpoint, target, out); err != nil {
		return err
	}
	if code := out.code(); code != okCode {
		return fmt.Errorf("%w: %s %s returned code %s", domain.ErrNetwork, ProviderName, endpoint, code)
	}
	return nil
}

func (e envelope) code() string { return e.Code }

func parseInt(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", domain.ErrNetwork, field, s, err)
	}
	return n, nil
}
