package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-map-service/internal/config"
	"github.com/couchcryptid/disaster-map-service/internal/domain"
)

// Header keys set on every published message.
const (
	HeaderPredictionState = "prediction_state"
	HeaderEnrichedAt      = "enriched_at"
)

// Publisher produces enriched items to a Kafka topic.
// It implements mapview.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes a completed batch and writes it in a single
// WriteMessages call. Items keep their batch order within a partition.
func (p *Publisher) Publish(ctx context.Context, items []domain.EnrichedItem) error {
	if len(items) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(items))
	for i := range items {
		msg, err := serializeToMessage(items[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish enriched items: %w", err)
	}
	p.logger.Debug("published enriched items", "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an EnrichedItem into a Kafka message keyed by item ID.
func serializeToMessage(item domain.EnrichedItem) (kafkago.Message, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize enriched item %d: %w", item.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(item.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderPredictionState, Value: []byte(item.Prediction.State)},
			{Key: HeaderEnrichedAt, Value: []byte(item.EnrichedAt.Format(time.RFC3339))},
		},
	}, nil
}
