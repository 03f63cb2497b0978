//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/weather-digest/internal/adapter/kafka"
	"github.com/couchcryptid/weather-digest/internal/adapter/rss"
	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
	"github.com/couchcryptid/weather-digest/internal/pipeline"
)

const testFeedTopic = "test-weather-digest-feed"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("weather-digest-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a one-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type publishedItem struct {
	Item    domain.FeedItem
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, broker string) publishedItem {
	t.Helper()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testFeedTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from feed topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var item domain.FeedItem
	require.NoError(t, json.Unmarshal(msg.Value, &item), "unmarshal feed item")

	return publishedItem{Item: item, Key: string(msg.Key), Headers: headers}
}

// TestKafkaWriterRoundTrip verifies kafka.Writer publishes the item keyed by
// GUID with the feed headers.
func TestKafkaWriterRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testFeedTopic)

	pub := time.Date(2024, time.July, 1, 0, 30, 0, 0, time.UTC)
	item := domain.NewFeedItem(domain.Digest{
		Title: "今日天气（2024-07-01 08:30）",
		Body:  "【台北市】白天 多云 18~24℃；晚间 小雨 17~20℃\n\n" + domain.NoAlertsLine,
	}, pub)

	writer := kafka.NewWriter([]string{broker}, testFeedTopic, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.Load(ctx, item))

	got := readPublished(ctx, t, broker)
	assert.Equal(t, item.GUID, got.Key)
	assert.Equal(t, item.GUID, got.Headers["feed_guid"])
	assert.Equal(t, "2024-07-01T00:30:00Z", got.Headers["published_at"])
	assert.Equal(t, item.Title, got.Item.Title)
	assert.Equal(t, item.Description, got.Item.Description)
	assert.True(t, item.PubDate.Equal(got.Item.PubDate))
}

type staticExtractor struct{ snap domain.Snapshot }

func (s staticExtractor) Extract(_ context.Context, run domain.Run) (domain.Snapshot, error) {
	snap := s.snap
	snap.Run = run
	return snap, nil
}

// TestPipelinePublishesFeedAndEvent runs the pipeline with the RSS writer as
// the feed loader and Kafka as a sink; both must carry the same item.
func TestPipelinePublishesFeedAndEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testFeedTopic)

	snap := domain.Snapshot{Cities: []domain.CityWeather{{
		Name: "台北市",
		Hourly: []domain.HourlyEntry{
			{Time: time.Date(2024, time.July, 1, 1, 0, 0, 0, time.UTC), Text: "多云", Temp: 18},
			{Time: time.Date(2024, time.July, 1, 4, 0, 0, 0, time.UTC), Text: "多云", Temp: 24},
		},
	}}}

	metrics := observability.NewMetricsForTesting()
	feedPath := filepath.Join(t.TempDir(), "weather.xml")
	writer := kafka.NewWriter([]string{broker}, testFeedTopic, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(
		staticExtractor{snap: snap},
		pipeline.NewTransformer(domain.DefaultSummaryPolicy(), nil, discardLogger(), metrics),
		rss.NewWriter(feedPath, rss.ChannelInfo{}, discardLogger(), metrics),
		[]pipeline.Sink{writer},
		nil,
		time.FixedZone("CST", 8*3600),
		discardLogger(),
		metrics,
	)
	require.NoError(t, p.Run(ctx))

	feed, err := rss.NewChecker(feedPath).Parse(ctx)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)

	got := readPublished(ctx, t, broker)
	assert.Equal(t, feed.Items[0].GUID, got.Key)
	assert.Equal(t, feed.Items[0].Title, got.Item.Title)
	assert.Contains(t, got.Item.Description, "【台北市】白天 多云 18~24℃")
	assert.Contains(t, got.Item.Description, domain.NoAlertsLine)
}
