package domain

import (
	"context"
	"time"
)

// Run carries the values fixed for one invocation of the job.
type Run struct {
	ID        string
	StartedAt time.Time
	Location  *time.Location
}

// Local returns the run start time in the run's time zone.
func (r Run) Local() time.Time {
	if r.Location == nil {
		return r.StartedAt
	}
	return r.StartedAt.In(r.Location)
}

// City is one configured forecast location.
type City struct {
	Name       string
	LocationID string // QWeather location id; resolved by name when empty
	County     string // CWA county name
}

// HourlyEntry is one hour of forecast.
type HourlyEntry struct {
	Time time.Time
	Text string
	Temp int
}

// DailyEntry is one day of forecast.
type DailyEntry struct {
	Date      string // YYYY-MM-DD in the provider's local time
	TextDay   string
	TextNight string
	TempMin   int
	TempMax   int
}

// LifeIndex is a single life-index reading such as the clothing index.
type LifeIndex struct {
	Category string
	Text     string
}

// IsZero reports whether the index carries no data.
func (l LifeIndex) IsZero() bool {
	return l.Category == "" && l.Text == ""
}

// CityWeather bundles everything fetched for one city. Any part may be empty
// when its upstream call failed.
type CityWeather struct {
	Name       string
	LocationID string
	Hourly     []HourlyEntry
	Daily      []DailyEntry
	Clothing   LifeIndex
}

// IsEmpty reports whether no forecast data was collected for the city.
func (c CityWeather) IsEmpty() bool {
	return len(c.Hourly) == 0 && len(c.Daily) == 0 && c.Clothing.IsZero()
}

// Alert is a single weather advisory, regardless of which source produced it.
type Alert struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	City     string `json:"city,omitempty"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source"`
}

// key identifies exact duplicates.
func (a Alert) key() string {
	return a.Source + "\x00" + a.City + "\x00" + a.Title + "\x00" + a.Text
}

// Outcome records one upstream call. A nil Err is a success; otherwise Err is
// the reason the corresponding entry was left empty.
type Outcome struct {
	Source string
	Target string
	Err    error
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// AlertResult is what every alert source returns: the alerts it found plus one
// outcome per upstream call it made.
type AlertResult struct {
	Alerts   []Alert
	Outcomes []Outcome
}

// AlertSource produces alerts from one upstream dataset.
type AlertSource interface {
	Name() string
	CollectAlerts(ctx context.Context) AlertResult
}

// Snapshot is the fully aggregated input to summary building. Cities keep the
// configured order and every configured city is present, empty or not.
type Snapshot struct {
	Run      Run
	Cities   []CityWeather
	Alerts   []Alert
	Outcomes []Outcome
}

// City returns the record for the named city.
func (s Snapshot) City(name string) (CityWeather, bool) {
	for _, c := range s.Cities {
		if c.Name == name {
			return c, true
		}
	}
	return CityWeather{}, false
}

// Failures returns the outcomes that did not succeed.
func (s Snapshot) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// AddAlerts appends alerts, dropping exact duplicates of alerts already held.
func (s *Snapshot) AddAlerts(alerts ...Alert) {
	seen := make(map[string]struct{}, len(s.Alerts)+len(alerts))
	for _, a := range s.Alerts {
		seen[a.key()] = struct{}{}
	}
	for _, a := range alerts {
		k := a.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		s.Alerts = append(s.Alerts, a)
	}
}

// Digest is the rendered summary.
type Digest struct {
	Title string
	Body  string
}

// Summarizer condenses alert text into one paragraph.
type Summarizer interface {
	Summarize(ctx context.Context, alerts string) (string, error)
}
