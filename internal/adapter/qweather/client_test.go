package qweather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) Token() (string, error) {
	s.calls++
	return s.token, s.err
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *staticTokens) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := &staticTokens{token: "tok"}
	c := NewClient(Options{Host: srv.URL, Lang: "zh", Timeout: 2 * time.Second, FailureThreshold: 5}, tokens, nil)
	return c, tokens
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewClient_HostWithoutScheme(t *testing.T) {
	c := NewClient(Options{Host: "abc123.qweatherapi.com/"}, &staticTokens{}, nil)
	assert.Equal(t, "https://abc123.qweatherapi.com", c.baseURL)
}

func TestHourly(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/weather/24h", r.URL.Path)
		assert.Equal(t, "101340101", r.URL.Query().Get("location"))
		assert.Equal(t, "zh", r.URL.Query().Get("lang"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"code":"200","hourly":[
			{"fxTime":"2024-07-01T09:00+08:00","temp":"18","text":"多云"},
			{"fxTime":"2024-07-01T10:00+08:00","temp":"-2","text":"小雪"}]}`)
	})

	entries, err := c.Hourly(context.Background(), "101340101")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, tokens.calls)

	assert.Equal(t, "多云", entries[0].Text)
	assert.Equal(t, 18, entries[0].Temp)
	assert.Equal(t, -2, entries[1].Temp)
	assert.True(t, entries[0].Time.Equal(time.Date(2024, time.July, 1, 1, 0, 0, 0, time.UTC)))
}

func TestHourly_ProviderErrorCode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code":"401"}`)
	})

	_, err := c.Hourly(context.Background(), "101340101")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "code 401")
}

func TestHourly_BadTemperature(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code":"200","hourly":[{"fxTime":"2024-07-01T09:00+08:00","temp":"warm","text":"晴"}]}`)
	})

	_, err := c.Hourly(context.Background(), "101340101")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestDaily(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/weather/7d", r.URL.Path)
		fmt.Fprint(w, `{"code":"200","daily":[
			{"fxDate":"2024-07-01","tempMax":"24","tempMin":"17","textDay":"多云","textNight":"小雨"}]}`)
	})

	days, err := c.Daily(context.Background(), "101340101")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, domain.DailyEntry{Date: "2024-07-01", TextDay: "多云", TextNight: "小雨", TempMin: 17, TempMax: 24}, days[0])
}

func TestClothing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/indices/1d", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("type"))
		fmt.Fprint(w, `{"code":"200","daily":[{"date":"2024-07-01","type":"3","name":"穿衣指数","category":"炎热","text":"建议着短衫。"}]}`)
	})

	idx, err := c.Clothing(context.Background(), "101340101")
	require.NoError(t, err)
	assert.Equal(t, domain.LifeIndex{Category: "炎热", Text: "建议着短衫。"}, idx)
}

func TestClothing_NoIndex(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code":"200","daily":[]}`)
	})

	idx, err := c.Clothing(context.Background(), "101340101")
	require.NoError(t, err)
	assert.True(t, idx.IsZero())
}

func TestLookupLocation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/v2/city/lookup", r.URL.Path)
		assert.Equal(t, "台北市", r.URL.Query().Get("location"))
		fmt.Fprint(w, `{"code":"200","location":[{"name":"台北","id":"101340101","adm1":"台湾"}]}`)
	})

	id, err := c.LookupLocation(context.Background(), "台北市")
	require.NoError(t, err)
	assert.Equal(t, "101340101", id)
}

func TestLookupLocation_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code":"404"}`)
	})

	_, err := c.LookupLocation(context.Background(), "nowhere")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestSigningFailureIsNotANetworkError(t *testing.T) {
	called := false
	c, tokens := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})
	tokens.err = fmt.Errorf("%w: sign token: bad key", domain.ErrCrypto)

	_, err := c.Daily(context.Background(), "101340101")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCrypto)
	assert.NotErrorIs(t, err, domain.ErrNetwork)
	assert.False(t, called)
}

func TestWarningSource(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/warning/now", r.URL.Path)
		switch r.URL.Query().Get("location") {
		case "101340101":
			fmt.Fprint(w, `{"code":"200","warning":[{"id":"w1","title":"台北市气象台发布大雨蓝色预警","text":"未来12小时有大雨。","typeName":"暴雨","severity":"Minor"}]}`)
		case "101191107":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			fmt.Fprint(w, `{"code":"200","warning":[]}`)
		}
	})

	src := NewWarningSource(c, []Region{
		{Name: "台北市", LocationID: "101340101"},
		{Name: "新北市", LocationID: "101191107"},
		{Name: "桃园市", LocationID: "101340102"},
	}, discardLogger())

	res := src.CollectAlerts(context.Background())

	assert.Equal(t, WarningSourceName, src.Name())
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, domain.Alert{
		Title:    "台北市气象台发布大雨蓝色预警",
		Text:     "未来12小时有大雨。",
		City:     "台北市",
		Category: "暴雨",
		Source:   WarningSourceName,
	}, res.Alerts[0])

	require.Len(t, res.Outcomes, 3)
	assert.True(t, res.Outcomes[0].OK())
	assert.False(t, res.Outcomes[1].OK())
	assert.Equal(t, "新北市", res.Outcomes[1].Target)
	assert.True(t, res.Outcomes[2].OK())
}

func TestWarningSource_StopsOnSigningFailure(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code":"200","warning":[]}`)
	})
	tokens.err = fmt.Errorf("%w: boom", domain.ErrCrypto)

	src := NewWarningSource(c, []Region{{Name: "A", LocationID: "1"}, {Name: "B", LocationID: "2"}}, discardLogger())
	res := src.CollectAlerts(context.Background())

	require.Len(t, res.Outcomes, 1)
	assert.True(t, errors.Is(res.Outcomes[0].Err, domain.ErrCrypto))
}
