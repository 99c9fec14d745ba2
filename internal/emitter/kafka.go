package emitter

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rethinkmon/rethinkmon/internal/config"
)

// kafkaSink publishes metric batches to a Kafka topic.
type kafkaSink struct {
	writer *kafka.Writer
}

// newKafkaSink creates a writer for the configured brokers. The topic is
// chosen per message from the publish subject.
func newKafkaSink(cfg config.EmitterConfig) (*kafkaSink, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
	}

	return &kafkaSink{writer: writer}, nil
}

// Publish publishes one payload to the topic named by the subject.
func (s *kafkaSink) Publish(ctx context.Context, subject string, data []byte) error {
	msg := kafka.Message{
		Topic: subject,
		Value: data,
		Time:  time.Now(),
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// Close closes the Kafka writer.
func (s *kafkaSink) Close() error {
	return s.writer.Close()
}
