// Package scheduler drives periodic collection cycles: tick, collect,
// emit, retain the latest result for the status API.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rethinkmon/rethinkmon/internal/collector"
	"github.com/rethinkmon/rethinkmon/internal/config"
	"github.com/rethinkmon/rethinkmon/internal/emitter"
	"github.com/rethinkmon/rethinkmon/internal/logging"
)

// Gate decides whether this agent should run cycles right now. It is used
// to pause followers when leader election is enabled.
type Gate func() bool

// Scheduler runs collection cycles on a fixed interval with a random
// start jitter, and keeps the most recent result.
type Scheduler struct {
	logger    *logging.Logger
	collector *collector.Collector
	emitter   *emitter.Emitter
	gate      Gate

	interval time.Duration
	jitter   time.Duration
	timeout  time.Duration

	mu          sync.RWMutex
	lastResult  *collector.Result
	lastEmitted int
	cycles      uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Scheduler. A nil gate means "always run".
func New(logger *logging.Logger, col *collector.Collector, em *emitter.Emitter, cfg config.CollectorConfig, gate Gate) *Scheduler {
	return &Scheduler{
		logger:    logger,
		collector: col,
		emitter:   em,
		gate:      gate,
		interval:  cfg.Interval,
		jitter:    cfg.Jitter,
		timeout:   cfg.Timeout,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the cycle loop in a background goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting collection scheduler",
		"interval", s.interval.String(),
		"jitter", s.jitter.String(),
		"timeout", s.timeout.String())

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop stops the loop and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Collection scheduler stopped")
}

// loop waits out the start jitter, then runs one cycle per tick.
func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.jitter > 0 {
		delay := time.Duration(rand.Int63n(int64(s.jitter)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.gate != nil && !s.gate() {
		s.logger.Debug("Skipping cycle, gate closed")
		return
	}
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Collection cycle failed", "error", err)
	}
}

// RunOnce runs a single collect-and-emit cycle under the cycle timeout
// and retains the result. It is also invoked by the admin API.
func (s *Scheduler) RunOnce(ctx context.Context) (*collector.Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res := s.collector.Collect(ctx)

	emitted := 0
	if s.emitter != nil {
		n, err := s.emitter.EmitCycle(ctx, res)
		if err != nil {
			s.logger.Error("Failed to emit metrics", "error", err)
		} else {
			emitted = n
		}
	}

	s.mu.Lock()
	s.lastResult = res
	s.lastEmitted = emitted
	s.cycles++
	cycles := s.cycles
	s.mu.Unlock()

	s.logger.Info("Collection cycle finished",
		"cycle", cycles,
		"duration", res.Duration.String(),
		"servers", len(res.Servers),
		"tables", len(res.Tables),
		"replicas", len(res.Replicas),
		"metrics_emitted", emitted,
		"failed_families", len(res.Errors))

	return res, nil
}

// LastResult returns the most recent cycle result, or nil before the
// first cycle, plus the number of metrics it emitted.
func (s *Scheduler) LastResult() (*collector.Result, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult, s.lastEmitted
}

// Cycles returns the number of completed cycles.
func (s *Scheduler) Cycles() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}
