package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ConnectionEvent represents an event about a connection edge
type ConnectionEvent struct {
	EventType   string                  `json:"event_type"` // requested, accepted, declined
	RequesterID string                  `json:"requester_id"`
	RecipientID string                  `json:"recipient_id"`
	Status      models.ConnectionStatus `json:"status,omitempty"`
	Timestamp   time.Time               `json:"timestamp"`
}

// MessageEvent represents an event about a message record
type MessageEvent struct {
	EventType  string               `json:"event_type"` // sent, read, deleted
	MessageID  string               `json:"message_id"`
	SenderID   string               `json:"sender_id"`
	ReceiverID string               `json:"receiver_id"`
	Status     models.MessageStatus `json:"status,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

// PublishConnectionEvent publishes a connection event to Kafka
func (p *Producer) PublishConnectionEvent(ctx context.Context, event *ConnectionEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishConnectionEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.RequesterID + ":" + event.RecipientID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("failed to publish connection event")
		return err
	}

	return nil
}

// PublishMessageEvent publishes a message event to Kafka
func (p *Producer) PublishMessageEvent(ctx context.Context, event *MessageEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishMessageEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.MessageID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("failed to publish message event")
		return err
	}

	return nil
}
