package domain

import (
	"fmt"
	"time"
)

// Window is a half-open range of local hours [Start, End).
type Window struct {
	Label string `yaml:"label" validate:"required"`
	Start int    `yaml:"start" validate:"gte=0,lte=23"`
	End   int    `yaml:"end" validate:"gte=1,lte=24,gtfield=Start"`
}

// Contains reports whether the given hour of day falls inside the window.
func (w Window) Contains(hour int) bool {
	return hour >= w.Start && hour < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%s[%02d,%02d)", w.Label, w.Start, w.End)
}

// SummaryPolicy selects how the digest is rendered.
type SummaryPolicy struct {
	Windows     []Window
	OutlookDays int
}

// DefaultSummaryPolicy is the daytime/evening split with a three-day outlook.
func DefaultSummaryPolicy() SummaryPolicy {
	return SummaryPolicy{
		Windows: []Window{
			{Label: "白天", Start: 9, End: 16},
			{Label: "晚间", Start: 16, End: 23},
		},
		OutlookDays: 3,
	}
}

// WindowSummary is the reduction of the hourly entries inside one window.
type WindowSummary struct {
	Window Window
	Text   string // most frequent description
	Min    int
	Max    int
	Count  int // number of hourly entries in the window
}

// Empty reports whether no entries fell inside the window.
func (s WindowSummary) Empty() bool { return s.Count == 0 }

// SummarizeWindow reduces the entries whose local hour falls inside w. Hours are
// read in loc; a nil loc keeps each entry's own offset.
func SummarizeWindow(entries []HourlyEntry, w Window, loc *time.Location) WindowSummary {
	out := WindowSummary{Window: w}

	counts := make(map[string]int)
	var order []string

	for _, e := range entries {
		t := e.Time
		if loc != nil {
			t = t.In(loc)
		}
		if !w.Contains(t.Hour()) {
			continue
		}

		if out.Count == 0 {
			out.Min, out.Max = e.Temp, e.Temp
		} else {
			out.Min = min(out.Min, e.Temp)
			out.Max = max(out.Max, e.Temp)
		}
		out.Count++

		if e.Text == "" {
			continue
		}
		if _, seen := counts[e.Text]; !seen {
			order = append(order, e.Text)
		}
		counts[e.Text]++
	}

	out.Text = mostFrequent(order, counts)
	return out
}

// mostFrequent returns the key with the highest count. Iterating in first-seen
// order with a strict comparison keeps the earliest key on ties.
func mostFrequent(order []string, counts map[string]int) string {
	best, bestCount := "", 0
	for _, k := range order {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
