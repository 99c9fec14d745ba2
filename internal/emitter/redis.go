package emitter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rethinkmon/rethinkmon/internal/config"
)

// redisSink publishes metric batches to a Redis stream via XADD.
type redisSink struct {
	client *redis.Client
	stream string
}

// newRedisSink connects to Redis and verifies the connection with a ping.
func newRedisSink(cfg config.EmitterConfig) (*redisSink, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		// Fallback to treating the URL as a plain address
		opts = &redis.Options{
			Addr:     cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	stream := cfg.RedisStream
	if stream == "" {
		stream = cfg.Subject
	}

	return &redisSink{client: client, stream: stream}, nil
}

// Publish appends one payload to the stream. The subject is carried as an
// entry field so consumers of a shared stream can route on it.
func (s *redisSink) Publish(ctx context.Context, subject string, data []byte) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"subject": subject,
			"payload": data,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", s.stream, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *redisSink) Close() error {
	return s.client.Close()
}
