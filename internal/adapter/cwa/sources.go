package cwa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

// Source names tag alerts and outcomes.
const (
	WarningSourceName  = "cwa.warning"
	TyphoonSourceName  = "cwa.typhoon"
	RainfallSourceName = "cwa.rainfall"
	WindSourceName     = "cwa.wind"
)

// WarningSource reports county weather hazards (W-C0033-001).
type WarningSource struct {
	client   *Client
	counties map[string]string
	logger   *slog.Logger
}

// NewWarningSource limits hazards to the counties of the given cities.
func NewWarningSource(client *Client, cities []domain.City, logger *slog.Logger) *WarningSource {
	return &WarningSource{client: client, counties: countyIndex(cities), logger: logger}
}

// Name labels the source in outcomes and metrics.
func (s *WarningSource) Name() string { return WarningSourceName }

// CollectAlerts reports active hazards for the configured counties.
func (s *WarningSource) CollectAlerts(ctx context.Context) domain.AlertResult {
	var resp hazardResponse
	err := s.client.dataset(ctx, datasetHazards, "warning", &resp)
	res := domain.AlertResult{Outcomes: []domain.Outcome{{Source: WarningSourceName, Target: datasetHazards, Err: err}}}
	if err != nil {
		s.logger.Warn("cwa hazards unavailable", "error", err)
		return res
	}

	for _, loc := range resp.Records.Location {
		city, ok := s.counties[loc.LocationName]
		if !ok {
			continue
		}
		for _, h := range loc.HazardConditions.Hazards {
			title := h.Info.Phenomena + h.Info.Significance
			if title == "" {
				continue
			}
			res.Alerts = append(res.Alerts, domain.Alert{
				Title:    title,
				Text:     validity(h.ValidTime.StartTime, h.ValidTime.EndTime),
				City:     city,
				Category: h.Info.Phenomena,
				Source:   WarningSourceName,
			})
		}
	}
	return res
}

func validity(start, end string) string {
	switch {
	case start != "" && end != "":
		return fmt.Sprintf("有效时间 %s ~ %s", start, end)
	case end != "":
		return "有效至 " + end
	default:
		return start
	}
}

// TyphoonSource reports active tropical cyclones (W-C0034-005). Its alerts are
// region-wide and carry no city.
type TyphoonSource struct {
	client *Client
	logger *slog.Logger
}

// NewTyphoonSource reports active tropical cyclone tracks.
func NewTyphoonSource(client *Client, logger *slog.Logger) *TyphoonSource {
	return &TyphoonSource{client: client, logger: logger}
}

// Name labels the source in outcomes and metrics.
func (s *TyphoonSource) Name() string { return TyphoonSourceName }

// CollectAlerts reports one alert per active typhoon.
func (s *TyphoonSource) CollectAlerts(ctx context.Context) domain.AlertResult {
	var resp typhoonResponse
	err := s.client.dataset(ctx, datasetTyphoon, "typhoon", &resp)
	res := domain.AlertResult{Outcomes: []domain.Outcome{{Source: TyphoonSourceName, Target: datasetTyphoon, Err: err}}}
	if err != nil {
		s.logger.Warn("cwa typhoon tracks unavailable", "error", err)
		return res
	}

	for _, tc := range resp.Records.TropicalCyclones.TropicalCyclone {
		res.Alerts = append(res.Alerts, domain.Alert{
			Title:    cycloneTitle(tc),
			Text:     cycloneText(tc),
			Category: "typhoon",
			Source:   TyphoonSourceName,
		})
	}
	return res
}

func cycloneTitle(tc tropicalCyclone) string {
	name := tc.CwaTyphoonName
	if name == "" {
		name = tc.TyphoonName
	}
	if tc.CwaTyNo == "" {
		if name == "" {
			name = tc.CwaTdNo
		}
		return "熱帶性低氣壓 " + name
	}
	return "颱風 " + name
}

// cycloneText describes the latest analysis fix.
func cycloneText(tc tropicalCyclone) string {
	fixes := tc.AnalysisData.Fix
	if len(fixes) == 0 {
		return "暂无路径资料"
	}
	f := fixes[len(fixes)-1]

	parts := []string{}
	if lon, lat, ok := strings.Cut(f.Coordinate, ","); ok {
		parts = append(parts, fmt.Sprintf("中心位置 北纬%s 东经%s", strings.TrimSpace(lat), strings.TrimSpace(lon)))
	}
	if f.Pressure > 0 {
		parts = append(parts, fmt.Sprintf("中心气压 %.0f hPa", float64(f.Pressure)))
	}
	if f.MaxWindSpeed > 0 {
		parts = append(parts, fmt.Sprintf("最大风速 %.0f m/s", float64(f.MaxWindSpeed)))
	}
	if f.MaxGustSpeed > 0 {
		parts = append(parts, fmt.Sprintf("瞬间阵风 %.0f m/s", float64(f.MaxGustSpeed)))
	}
	if f.MovingDirection != "" {
		parts = append(parts, fmt.Sprintf("向 %s 移动 %.0f km/h", f.MovingDirection, float64(f.MovingSpeed)))
	}
	if len(parts) == 0 {
		return "暂无路径资料"
	}
	return strings.Join(parts, "，")
}
