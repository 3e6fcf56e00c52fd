package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/austin-311-etl/internal/config"
	"github.com/couchcryptid/austin-311-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// sourceName tags every published document with its origin dataset.
const sourceName = "austin-311"

// messageWriter is the subset of kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces normalized documents to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple documents to the sink topic in
// a single WriteMessages call. Messages are keyed by service request number
// so updates to one request stay on one partition.
func (w *Writer) LoadBatch(ctx context.Context, docs []domain.OutputDocument) error {
	if len(docs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(docs))
	for i := range docs {
		msg, err := serializeToMessage(docs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write messages: %w", err)
	}
	w.logger.Debug("batch published", "batch_size", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a document into a Kafka message.
func serializeToMessage(doc domain.OutputDocument) (kafkago.Message, error) {
	data, err := json.Marshal(doc.Document)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize document %s: %w", doc.Key, err)
	}
	return kafkago.Message{
		Key:   []byte(doc.Key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(sourceName)},
			{Key: "processed_at", Value: []byte(domain.FormatProcessedAt(doc.ProcessedAt))},
		},
	}, nil
}
