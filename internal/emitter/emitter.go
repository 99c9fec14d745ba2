// Package emitter turns collection results into flat metric records and
// publishes them in compressed batches to a message sink (NATS, Redis
// Streams, Kafka, or an in-memory sink for tests).
package emitter

import (
	"context"
	"fmt"
	"time"

	"github.com/rethinkmon/rethinkmon/internal/collector"
	"github.com/rethinkmon/rethinkmon/internal/config"
	"github.com/rethinkmon/rethinkmon/internal/logging"
)

// Metric is one flat measurement extracted from a collection cycle.
type Metric struct {
	Name      string   `json:"name"`
	Value     float64  `json:"value"`
	Tags      []string `json:"tags,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// Sink publishes encoded metric batches to a transport.
type Sink interface {
	// Publish publishes one payload to a subject/topic.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection.
	Close() error
}

// Emitter converts cycle results into metric batches and pushes them to
// the configured sink.
type Emitter struct {
	logger   *logging.Logger
	sink     Sink
	subject  string
	compress bool
	tags     []string
}

// New creates an Emitter publishing to the given sink.
func New(logger *logging.Logger, sink Sink, cfg config.EmitterConfig, tags []string) *Emitter {
	return &Emitter{
		logger:   logger,
		sink:     sink,
		subject:  cfg.Subject,
		compress: cfg.Compress,
		tags:     tags,
	}
}

// EmitCycle flattens one collection result into metrics and publishes them
// as a single batch. It returns the number of metrics emitted.
func (e *Emitter) EmitCycle(ctx context.Context, res *collector.Result) (int, error) {
	metrics := BuildMetrics(res, e.tags)
	if len(metrics) == 0 {
		e.logger.Debug("no metrics to emit this cycle")
		return 0, nil
	}

	batch := Batch{
		CollectedAt: res.CollectedAt,
		Metrics:     metrics,
	}
	payload, err := EncodeBatch(batch, e.compress)
	if err != nil {
		return 0, fmt.Errorf("failed to encode metric batch: %w", err)
	}

	start := time.Now()
	if err := e.sink.Publish(ctx, e.subject, payload); err != nil {
		return 0, fmt.Errorf("failed to publish metric batch: %w", err)
	}

	e.logger.Debug("published metric batch",
		"metrics", len(metrics),
		"bytes", len(payload),
		"subject", e.subject,
		"took", time.Since(start).String())
	return len(metrics), nil
}

// Close closes the underlying sink.
func (e *Emitter) Close() error {
	return e.sink.Close()
}
