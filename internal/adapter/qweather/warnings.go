package qweather

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

// WarningSourceName tags alerts and outcomes from the warning endpoint.
const WarningSourceName = "qweather.warning"

// Region is one location polled for warnings. Name labels the alerts it yields.
type Region struct {
	Name       string
	LocationID string
}

// WarningSource implements domain.AlertSource over /v7/warning/now.
type WarningSource struct {
	client  *Client
	regions []Region
	logger  *slog.Logger
}

// NewWarningSource polls each region in order.
func NewWarningSource(client *Client, regions []Region, logger *slog.Logger) *WarningSource {
	return &WarningSource{client: client, regions: regions, logger: logger}
}

// Name implements domain.AlertSource.
func (s *WarningSource) Name() string { return WarningSourceName }

// CollectAlerts implements domain.AlertSource. A failed region is recorded in
// the outcomes and the remaining regions are still polled.
func (s *WarningSource) CollectAlerts(ctx context.Context) domain.AlertResult {
	var res domain.AlertResult
	for _, r := range s.regions {
		warnings, err := s.client.Warnings(ctx, r.LocationID)
		res.Outcomes = append(res.Outcomes, domain.Outcome{Source: WarningSourceName, Target: r.Name, Err: err})
		if err != nil {
			s.logger.Warn("qweather warnings unavailable", "region", r.Name, "location_id", r.LocationID, "error", err)
			if domain.IsFatal(err) {
				return res
			}
			continue
		}
		for _, w := range warnings {
			res.Alerts = append(res.Alerts, domain.Alert{
				Title:    w.Title,
				Text:     w.Text,
				City:     r.Name,
				Category: w.TypeName,
				Source:   WarningSourceName,
			})
		}
	}
	return res
}
