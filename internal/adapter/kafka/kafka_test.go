package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	pub := time.Date(2024, time.July, 1, 8, 30, 0, 0, time.FixedZone("CST", 8*3600))
	item := domain.NewFeedItem(domain.Digest{Title: "今日天气", Body: "第一行\n第二行"}, pub)

	msg, err := serializeToMessage(item)
	require.NoError(t, err)

	assert.Equal(t, []byte("weather-20240701T003000"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "feed_guid", msg.Headers[0].Key)
	assert.Equal(t, []byte("weather-20240701T003000"), msg.Headers[0].Value)
	assert.Equal(t, "published_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-07-01T00:30:00Z"), msg.Headers[1].Value)

	var decoded domain.FeedItem
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, item.Title, decoded.Title)
	assert.Equal(t, item.Description, decoded.Description)
	assert.Equal(t, item.GUID, decoded.GUID)
	assert.True(t, item.PubDate.Equal(decoded.PubDate))
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"broker1:9092", "broker2:9092"}, "weather-feed", nil)
	assert.Equal(t, "weather-feed", w.writer.Topic)
	assert.Equal(t, "kafka", w.Name())
	assert.NoError(t, w.Close())
}
