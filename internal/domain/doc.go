// Package domain models the weather digest: forecasts and alerts collected from
// upstream providers, the per-run snapshot that aggregates them, and the text
// digest rendered from that snapshot.
//
// # Data Sources
//
// Forecasts come from the QWeather v7 API (https://dev.qweather.com/docs/api/):
//
//	/v7/weather/24h   hourly forecast, 24 entries starting at the current hour
//	/v7/weather/7d    daily forecast, 7 entries starting today
//	/v7/indices/1d    life indices; type=3 is the clothing index
//	/v7/warning/now   active warnings for one location id
//
// QWeather returns every number as a string ("temp": "23") and every timestamp
// with an explicit offset ("fxTime": "2024-07-01T15:00+08:00"). The body always
// carries a provider "code"; anything other than "200" is a failed call even
// when the HTTP status is 200.
//
// Secondary alerts come from the Taiwan Central Weather Administration (CWA)
// open data platform (https://opendata.cwa.gov.tw/):
//
//	W-C0033-001   county hazard warnings (phenomena + significance, e.g. 大雨特報)
//	W-C0034-005   tropical cyclone tracks
//	O-A0002-001   rain gauge observations (1h / 24h accumulation, mm)
//	O-A0001-001   automatic station observations (wind speed, peak gust, m/s)
//
// CWA names counties in traditional script (臺北市); each configured city maps
// to its CWA county name explicitly.
//
// # Derived Alerts
//
// Observation datasets do not carry alerts of their own. An alert is derived
// per county from the worst station in it:
//
//	Rain:  1h >= 40mm or 24h >= 80mm (CWA heavy-rain criteria)
//	Wind:  sustained >= 10.8 m/s (Beaufort 6) or gust >= 17.2 m/s (Beaufort 8)
//
// Thresholds are configurable.
//
// # Summary Windows
//
// Hourly entries are bucketed by local hour of day into half-open windows,
// by default 白天 [09, 16) and 晚间 [16, 23). Each window reports its most
// frequent description (ties go to the description seen first) and its
// temperature range. The hourly forecast covers only the next 24 hours, so a
// window that already passed today describes tomorrow.
//
// # Feed Identity
//
// The single feed item's GUID is "weather-" followed by the UTC publish time as
// 20060102T150405, so re-running within the same second yields the same GUID.
package domain
