package emitter

import (
	"fmt"
	"strings"

	"github.com/rethinkmon/rethinkmon/internal/config"
)

// Supported sink types.
const (
	SinkNATS   = "nats"
	SinkRedis  = "redis"
	SinkKafka  = "kafka"
	SinkMemory = "memory"
)

// NewSink creates a Sink based on configuration. Default is NATS if the
// type is not specified.
func NewSink(cfg config.EmitterConfig) (Sink, error) {
	sinkType := strings.ToLower(cfg.Type)
	if sinkType == "" {
		sinkType = SinkNATS
	}

	switch sinkType {
	case SinkNATS:
		return newNATSSink(cfg)

	case SinkRedis:
		return newRedisSink(cfg)

	case SinkKafka:
		return newKafkaSink(cfg)

	case SinkMemory:
		return NewMemorySink(), nil

	default:
		return nil, fmt.Errorf("unsupported sink type: %s (supported: nats, redis, kafka, memory)", sinkType)
	}
}
