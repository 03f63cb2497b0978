package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
)

// Outcome sources for forecast calls.
const (
	SourceGeo      = "qweather.geo"
	SourceHourly   = "qweather.hourly"
	SourceDaily    = "qweather.daily"
	SourceClothing = "qweather.indices"
)

// ForecastClient fetches per-city forecast data.
type ForecastClient interface {
	Hourly(ctx context.Context, locationID string) ([]domain.HourlyEntry, error)
	Daily(ctx context.Context, locationID string) ([]domain.DailyEntry, error)
	Clothing(ctx context.Context, locationID string) (domain.LifeIndex, error)
	LookupLocation(ctx context.Context, name string) (string, error)
}

// Fetcher implements Extractor. It calls every upstream sequentially and
// degrades each failed call to an empty part of the snapshot.
type Fetcher struct {
	forecasts ForecastClient
	cities    []domain.City
	sources   []domain.AlertSource
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFetcher creates a Fetcher for the given cities and alert sources.
func NewFetcher(forecasts ForecastClient, cities []domain.City, sources []domain.AlertSource, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		forecasts: forecasts,
		cities:    cities,
		sources:   sources,
		logger:    logger,
		metrics:   metrics,
	}
}

// Extract builds the snapshot for one run. It returns an error only when the
// context is cancelled or a fatal error (configuration or signing) occurs;
// every other failure is recorded in the snapshot outcomes.
func (f *Fetcher) Extract(ctx context.Context, run domain.Run) (domain.Snapshot, error) {
	snap := domain.Snapshot{Run: run, Cities: make([]domain.CityWeather, 0, len(f.cities))}
	logger := f.logger.With("run_id", run.ID)

	for _, city := range f.cities {
		if err := ctx.Err(); err != nil {
			return snap, err
		}
		cw, outcomes := f.fetchCity(ctx, city, logger)
		snap.Cities = append(snap.Cities, cw)
		snap.Outcomes = append(snap.Outcomes, outcomes...)
		if err := firstFatal(outcomes); err != nil {
			return snap, err
		}
	}

	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			return snap, err
		}
		res := src.CollectAlerts(ctx)
		snap.Outcomes = append(snap.Outcomes, res.Outcomes...)
		if err := firstFatal(res.Outcomes); err != nil {
			return snap, err
		}
		snap.AddAlerts(res.Alerts...)
		if f.metrics != nil {
			f.metrics.AlertsCollected.WithLabelValues(src.Name()).Add(float64(len(res.Alerts)))
		}
		logger.Debug("alerts collected", "source", src.Name(), "alerts", len(res.Alerts))
	}

	logger.Info("snapshot built",
		"cities", len(snap.Cities),
		"alerts", len(snap.Alerts),
		"calls", len(snap.Outcomes),
		"failed_calls", len(snap.Failures()),
	)
	return snap, nil
}

// fetchCity collects everything for one city. The record is always returned,
// possibly empty.
func (f *Fetcher) fetchCity(ctx context.Context, city domain.City, logger *slog.Logger) (domain.CityWeather, []domain.Outcome) {
	cw := domain.CityWeather{Name: city.Name, LocationID: city.LocationID}
	var outcomes []domain.Outcome

	record := func(source string, err error) bool {
		outcomes = append(outcomes, domain.Outcome{Source: source, Target: city.Name, Err: err})
		if err != nil {
			logger.Warn("upstream call failed, continuing with partial data",
				"source", source,
				"city", city.Name,
				"error", err,
			)
		}
		return err == nil
	}

	if cw.LocationID == "" {
		id, err := f.forecasts.LookupLocation(ctx, city.Name)
		if !record(SourceGeo, err) {
			return cw, outcomes
		}
		cw.LocationID = id
	}

	hourly, err := f.forecasts.Hourly(ctx, cw.LocationID)
	if record(SourceHourly, err) {
		cw.Hourly = hourly
	} else if domain.IsFatal(err) {
		return cw, outcomes
	}

	daily, err := f.forecasts.Daily(ctx, cw.LocationID)
	if record(SourceDaily, err) {
		cw.Daily = daily
	} else if domain.IsFatal(err) {
		return cw, outcomes
	}

	clothing, err := f.forecasts.Clothing(ctx, cw.LocationID)
	if record(SourceClothing, err) {
		cw.Clothing = clothing
	}

	return cw, outcomes
}

func firstFatal(outcomes []domain.Outcome) error {
	for _, o := range outcomes {
		if o.Err != nil && domain.IsFatal(o.Err) {
			return fmt.Errorf("%s %s: %w", o.Source, o.Target, o.Err)
		}
	}
	return nil
}
