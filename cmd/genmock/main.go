// Command genmock renders a sample feed from a synthetic snapshot so the
// layout can be previewed without API credentials. The clock is fixed, so the
// output is byte-for-byte reproducible.
//
// Usage:
//
//	go run ./cmd/genmock -out docs/weather.xml -alerts
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-digest/internal/adapter/rss"
	"github.com/couchcryptid/weather-digest/internal/domain"
)

var (
	mockStart = time.Date(2024, time.July, 1, 0, 30, 0, 0, time.UTC)
	taipei    = time.FixedZone("CST", 8*3600)
)

type mockCity struct {
	name, id string
	base     int // daytime low
	day      string
	evening  string
}

var mockCities = []mockCity{
	{name: "台北市", id: "101340101", base: 27, day: "多云", evening: "雷阵雨"},
	{name: "新北市", id: "101340102", base: 26, day: "晴", evening: "多云"},
	{name: "基隆市", id: "101340201", base: 25, day: "小雨", evening: "小雨"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the feed; empty writes to stdout")
	withAlerts := flag.Bool("alerts", false, "include sample alerts")
	flag.Parse()

	clock := clockwork.NewFakeClockAt(mockStart)
	snap := mockSnapshot(clock, *withAlerts)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	digest, mode := domain.NewBuilder(domain.DefaultSummaryPolicy(), nil, logger).Build(context.Background(), snap)
	item := domain.NewFeedItem(digest, snap.Run.StartedAt)

	w := rss.NewWriter(*out, rss.ChannelInfo{}, logger, nil)
	if *out == "" {
		data, err := w.Render(item)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := w.Load(context.Background(), item); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %s (guid %s, alerts %s)", *out, item.GUID, mode)
	return nil
}

func mockSnapshot(clock clockwork.Clock, withAlerts bool) domain.Snapshot {
	run := domain.Run{ID: "genmock", StartedAt: clock.Now(), Location: taipei}
	snap := domain.Snapshot{Run: run}

	day := run.Local()
	for _, c := range mockCities {
		cw := domain.CityWeather{Name: c.name, LocationID: c.id}
		for h := 9; h < 23; h++ {
			text, temp := c.day, c.base+min(h-9, 5)
			if h >= 16 {
				text, temp = c.evening, c.base+5-min(h-16, 4)
			}
			cw.Hourly = append(cw.Hourly, domain.HourlyEntry{
				Time: time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, taipei),
				Text: text,
				Temp: temp,
			})
		}
		for d := 0; d < 3; d++ {
			date := day.AddDate(0, 0, d)
			cw.Daily = append(cw.Daily, domain.DailyEntry{
				Date:      date.Format(time.DateOnly),
				TextDay:   c.day,
				TextNight: c.evening,
				TempMin:   c.base - 1 + d,
				TempMax:   c.base + 5 + d,
			})
		}
		cw.Clothing = domain.LifeIndex{Category: "炎热", Text: "建议着短衫、短裙、短裤、薄型T恤衫等清凉夏季服装。"}
		snap.Cities = append(snap.Cities, cw)
	}

	if withAlerts {
		snap.AddAlerts(
			domain.Alert{Title: "台北市气象台发布雷电黄色预警", Text: "预计未来6小时内台北市将发生雷电活动，请注意防范。", City: "台北市", Category: "雷电", Source: "qweather.warning"},
			domain.Alert{Title: "大雨特报", Text: "有效时间 2024-07-01 14:00 ~ 2024-07-01 20:00", City: "基隆市", Category: "大雨", Source: "cwa.warning"},
			domain.Alert{Title: "颱風 凱米", Text: "中心位置 北纬22.1 东经124.3，最大风速 33 m/s，向西北移动。", Category: "typhoon", Source: "cwa.typhoon"},
		)
	}
	return snap
}
