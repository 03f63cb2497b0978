package cwa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

// RainThresholds are accumulations in millimetres at or above which a county is
// flagged. A zero threshold disables that check.
type RainThresholds struct {
	OneHour    float64
	TwentyFour float64
}

// WindThresholds are speeds in m/s at or above which a county is flagged.
type WindThresholds struct {
	Sustained float64
	Gust      float64
}

// DefaultRainThresholds follow the CWA heavy-rain criteria.
func DefaultRainThresholds() RainThresholds {
	return RainThresholds{OneHour: 40, TwentyFour: 80}
}

// DefaultWindThresholds are Beaufort 6 sustained and Beaufort 8 gusts.
func DefaultWindThresholds() WindThresholds {
	return WindThresholds{Sustained: 10.8, Gust: 17.2}
}

// peak is the highest reading in a county and the station that reported it.
type peak struct {
	value   float64
	station string
}

func (p *peak) observe(v float64, station string) {
	if v > p.value {
		p.value, p.station = v, station
	}
}

func exceeds(v, threshold float64) bool {
	return threshold > 0 && v >= threshold
}

// countyPeaks groups stations by configured city, keeping the order cities
// first appear in the dataset.
func countyPeaks(stations []station, counties map[string]string, read func(station) (float64, float64)) ([]string, map[string][2]peak) {
	var order []string
	peaks := make(map[string][2]peak)
	for _, st := range stations {
		city, ok := counties[st.GeoInfo.CountyName]
		if !ok {
			continue
		}
		a, b := read(st)
		p, seen := peaks[city]
		if !seen {
			order = append(order, city)
		}
		// CWA reports missing readings as large negative sentinels.
		if a >= 0 {
			p[0].observe(a, st.StationName)
		}
		if b >= 0 {
			p[1].observe(b, st.StationName)
		}
		peaks[city] = p
	}
	return order, peaks
}

// RainfallSource derives rain alerts from gauge accumulations (O-A0002-001).
type RainfallSource struct {
	client     *Client
	counties   map[string]string
	thresholds RainThresholds
	logger     *slog.Logger
}

// NewRainfallSource flags counties whose station rainfall reaches t.
func NewRainfallSource(client *Client, cities []domain.City, t RainThresholds, logger *slog.Logger) *RainfallSource {
	return &RainfallSource{client: client, counties: countyIndex(cities), thresholds: t, logger: logger}
}

// Name labels the source in outcomes and metrics.
func (s *RainfallSource) Name() string { return RainfallSourceName }

// CollectAlerts reports one heavy-rain alert per flagged city.
func (s *RainfallSource) CollectAlerts(ctx context.Context) domain.AlertResult {
	var resp stationResponse
	err := s.client.dataset(ctx, datasetRainfall, "rainfall", &resp)
	res := domain.AlertResult{Outcomes: []domain.Outcome{{Source: RainfallSourceName, Target: datasetRainfall, Err: err}}}
	if err != nil {
		s.logger.Warn("cwa rainfall observations unavailable", "error", err)
		return res
	}

	order, peaks := countyPeaks(resp.Records.Station, s.counties, func(st station) (float64, float64) {
		return float64(st.RainfallElement.Past1hr.Precipitation), float64(st.RainfallElement.Past24hr.Precipitation)
	})

	for _, city := range order {
		hour, day := peaks[city][0], peaks[city][1]
		var parts []string
		if exceeds(hour.value, s.thresholds.OneHour) {
			parts = append(parts, fmt.Sprintf("%s站1小时雨量 %.1f mm", hour.station, hour.value))
		}
		if exceeds(day.value, s.thresholds.TwentyFour) {
			parts = append(parts, fmt.Sprintf("%s站24小时雨量 %.1f mm", day.station, day.value))
		}
		if len(parts) == 0 {
			continue
		}
		res.Alerts = append(res.Alerts, domain.Alert{
			Title:    "雨量观测超标",
			Text:     strings.Join(parts, "，"),
			City:     city,
			Category: "rain",
			Source:   RainfallSourceName,
		})
	}
	return res
}

// WindSource derives wind alerts from station observations (O-A0001-001).
type WindSource struct {
	client     *Client
	counties   map[string]string
	thresholds WindThresholds
	logger     *slog.Logger
}

// NewWindSource flags counties whose sustained wind or gusts reach t.
func NewWindSource(client *Client, cities []domain.City, t WindThresholds, logger *slog.Logger) *WindSource {
	return &WindSource{client: client, counties: countyIndex(cities), thresholds: t, logger: logger}
}

// Name labels the source in outcomes and metrics.
func (s *WindSource) Name() string { return WindSourceName }

// CollectAlerts reports one strong-wind alert per flagged city.
func (s *WindSource) CollectAlerts(ctx context.Context) domain.AlertResult {
	var resp stationResponse
	err := s.client.dataset(ctx, datasetStations, "wind", &resp)
	res := domain.AlertResult{Outcomes: []domain.Outcome{{Source: WindSourceName, Target: datasetStations, Err: err}}}
	if err != nil {
		s.logger.Warn("cwa station observations unavailable", "error", err)
		return res
	}

	order, peaks := countyPeaks(resp.Records.Station, s.counties, func(st station) (float64, float64) {
		return float64(st.WeatherElement.WindSpeed), float64(st.WeatherElement.GustInfo.PeakGustSpeed)
	})

	for _, city := range order {
		sustained, gust := peaks[city][0], peaks[city][1]
		var parts []string
		if exceeds(sustained.value, s.thresholds.Sustained) {
			parts = append(parts, fmt.Sprintf("%s站平均风速 %.1f m/s", sustained.station, sustained.value))
		}
		if exceeds(gust.value, s.thresholds.Gust) {
			parts = append(parts, fmt.Sprintf("%s站阵风 %.1f m/s", gust.station, gust.value))
		}
		if len(parts) == 0 {
			continue
		}
		res.Alerts = append(res.Alerts, domain.Alert{
			Title:    "强风观测",
			Text:     strings.Join(parts, "，"),
			City:     city,
			Category: "wind",
			Source:   WindSourceName,
		})
	}
	return res
}
