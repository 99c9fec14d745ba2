// Package handlers implements the HTTP handlers of the status API.
package handlers

import (
	"github.com/rethinkmon/rethinkmon/internal/logging"
	"github.com/rethinkmon/rethinkmon/internal/scheduler"
)

// LeaderReporter reports leadership when leader election is enabled.
type LeaderReporter interface {
	IsLeader() bool
}

// Handler contains all HTTP handlers
type Handler struct {
	logger    *logging.Logger
	scheduler *scheduler.Scheduler
	leader    LeaderReporter // nil when election is disabled
	version   string
}

// New creates a new handler instance
func New(logger *logging.Logger, sched *scheduler.Scheduler, leader LeaderReporter, version string) *Handler {
	return &Handler{
		logger:    logger,
		scheduler: sched,
		leader:    leader,
		version:   version,
	}
}

// isLeader reports leadership; without election every agent leads.
func (h *Handler) isLeader() bool {
	if h.leader == nil {
		return true
	}
	return h.leader.IsLeader()
}
