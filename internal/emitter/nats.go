package emitter

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/rethinkmon/rethinkmon/internal/config"
)

// natsSink publishes metric batches to a NATS subject.
type natsSink struct {
	conn *nats.Conn
}

// newNATSSink connects to the NATS server named in the config.
func newNATSSink(cfg config.EmitterConfig) (*natsSink, error) {
	opts := []nats.Option{
		nats.Name("rethinkmon"),
		nats.MaxReconnects(-1),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &natsSink{conn: conn}, nil
}

// Publish publishes one payload to a NATS subject.
func (s *natsSink) Publish(ctx context.Context, subject string, data []byte) error {
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (s *natsSink) Close() error {
	if err := s.conn.Flush(); err != nil {
		s.conn.Close()
		return err
	}
	s.conn.Close()
	return nil
}
