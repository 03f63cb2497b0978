package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

// Writer publishes each run's feed item to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the feed topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Load publishes the item keyed by its GUID.
func (w *Writer) Load(ctx context.Context, item domain.FeedItem) error {
	msg, err := serializeToMessage(item)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish feed item %s: %w", item.GUID, err)
	}
	w.logger.Info("feed item published", "topic", w.writer.Topic, "guid", item.GUID)
	return nil
}

// Name labels the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FeedItem into a Kafka message.
func serializeToMessage(item domain.FeedItem) (kafkago.Message, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feed item: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(item.GUID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "feed_guid", Value: []byte(item.GUID)},
			{Key: "published_at", Value: []byte(item.PubDate.UTC().Format(time.RFC3339))},
		},
	}, nil
}
