package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var taipei = time.FixedZone("CST", 8*3600)

func hourly(day, hour int, text string, temp int) HourlyEntry {
	return HourlyEntry{
		Time: time.Date(2024, time.July, day, hour, 0, 0, 0, taipei),
		Text: text,
		Temp: temp,
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Label: "白天", Start: 9, End: 16}

	assert.False(t, w.Contains(8))
	assert.True(t, w.Contains(9))
	assert.True(t, w.Contains(15))
	assert.False(t, w.Contains(16))
}

func TestSummarizeWindow(t *testing.T) {
	entries := []HourlyEntry{
		hourly(1, 8, "晴", 30),
		hourly(1, 9, "多云", 21),
		hourly(1, 10, "多云", 18),
		hourly(1, 11, "小雨", 24),
		hourly(1, 15, "多云", 22),
		hourly(1, 16, "小雨", 19),
	}

	s := SummarizeWindow(entries, Window{Label: "白天", Start: 9, End: 16}, taipei)

	assert.Equal(t, "多云", s.Text)
	assert.Equal(t, 18, s.Min)
	assert.Equal(t, 24, s.Max)
	assert.Equal(t, 4, s.Count)
	assert.False(t, s.Empty())
}

func TestSummarizeWindow_TieGoesToFirstSeen(t *testing.T) {
	entries := []HourlyEntry{
		hourly(1, 16, "小雨", 20),
		hourly(1, 17, "阴", 19),
		hourly(1, 18, "阴", 19),
		hourly(1, 19, "小雨", 18),
	}

	s := SummarizeWindow(entries, Window{Label: "晚间", Start: 16, End: 23}, taipei)
	assert.Equal(t, "小雨", s.Text)
	assert.Equal(t, 18, s.Min)
	assert.Equal(t, 20, s.Max)
}

func TestSummarizeWindow_ConvertsToLocalHour(t *testing.T) {
	// 01:00 UTC is 09:00 in Taipei.
	entries := []HourlyEntry{
		{Time: time.Date(2024, time.July, 1, 1, 0, 0, 0, time.UTC), Text: "晴", Temp: 27},
	}

	s := SummarizeWindow(entries, Window{Label: "白天", Start: 9, End: 16}, taipei)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, "晴", s.Text)

	s = SummarizeWindow(entries, Window{Label: "白天", Start: 9, End: 16}, time.UTC)
	assert.True(t, s.Empty())
}

func TestSummarizeWindow_Empty(t *testing.T) {
	s := SummarizeWindow(nil, Window{Label: "白天", Start: 9, End: 16}, taipei)
	assert.True(t, s.Empty())
	assert.Empty(t, s.Text)
}

func TestSummarizeWindow_NegativeTemperatures(t *testing.T) {
	entries := []HourlyEntry{
		hourly(1, 9, "雪", -3),
		hourly(1, 10, "雪", -7),
		hourly(1, 11, "阴", -1),
	}

	s := SummarizeWindow(entries, Window{Label: "白天", Start: 9, End: 16}, taipei)
	assert.Equal(t, -7, s.Min)
	assert.Equal(t, -1, s.Max)
}

func TestDefaultSummaryPolicy(t *testing.T) {
	p := DefaultSummaryPolicy()
	assert.Len(t, p.Windows, 2)
	assert.Equal(t, "白天[09,16)", p.Windows[0].String())
	assert.Equal(t, "晚间[16,23)", p.Windows[1].String())
	assert.Equal(t, 3, p.OutlookDays)
}
