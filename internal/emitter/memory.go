package emitter

import (
	"context"
	"fmt"
	"sync"
)

// MemorySink is an in-memory Sink that retains published payloads. It is
// used in tests and for running the agent without an external broker.
type MemorySink struct {
	mu       sync.RWMutex
	payloads map[string][][]byte
	closed   bool
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		payloads: make(map[string][][]byte),
	}
}

// Publish retains a copy of the payload under the subject.
func (s *MemorySink) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	s.payloads[subject] = append(s.payloads[subject], dataCopy)
	return nil
}

// Payloads returns the payloads published to a subject, oldest first.
func (s *MemorySink) Payloads(subject string) [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]byte, len(s.payloads[subject]))
	copy(out, s.payloads[subject])
	return out
}

// Close marks the sink closed. Retained payloads stay readable.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
