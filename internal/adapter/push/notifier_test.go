package push

import (
	"context"
	"encoding/json"
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotify(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "weather", time.Second, discardLogger())
	require.NoError(t, n.Notify(context.Background(), "今日天气", "line1\nline2"))

	assert.Equal(t, message{Title: "今日天气", Body: "line1\nline2", Group: "weather"}, got)
}

func TestNotify_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL, "", time.Second, discardLogger()).Notify(context.Background(), "t", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "400")
}

func TestNotify_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewNotifier(url, "", time.Second, discardLogger()).Notify(context.Background(), "t", "b")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestLoad(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "", time.Second, discardLogger())
	item := domain.FeedItem{Title: "T", Description: "D", GUID: "weather-20240701T003000"}

	require.NoError(t, n.Load(context.Background(), item))
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "D", got.Body)
	assert.Empty(t, got.Group)
	assert.Equal(t, "push", n.Name())
}
