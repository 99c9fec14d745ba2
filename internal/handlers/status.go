package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rethinkmon/rethinkmon/internal/collector"
	"github.com/rethinkmon/rethinkmon/internal/models"
)

// Status reports the agent state and a summary of the latest cycle.
func (h *Handler) Status(c *fiber.Ctx) error {
	resp := models.StatusResponse{
		Leader: h.isLeader(),
		Cycles: h.scheduler.Cycles(),
	}

	if res, emitted := h.scheduler.LastResult(); res != nil {
		resp.CollectedAt = res.CollectedAt.Format(time.RFC3339)
		resp.DurationMS = float64(res.Duration.Milliseconds())
		resp.Servers = len(res.Servers)
		resp.Tables = len(res.Tables)
		resp.Replicas = len(res.Replicas)
		resp.MetricsEmitted = emitted
		resp.SkippedTables = res.SkippedTables
		resp.Failures = familyFailures(res)
	}

	return c.JSON(resp)
}

// SnapshotServers returns the per-server records of the latest cycle.
func (h *Handler) SnapshotServers(c *fiber.Ctx) error {
	res, _ := h.scheduler.LastResult()
	if res == nil {
		return noData(c)
	}
	return c.JSON(models.SnapshotResponse{
		CollectedAt: res.CollectedAt.Format(time.RFC3339),
		Count:       len(res.Servers),
		Records:     res.Servers,
	})
}

// SnapshotTables returns the per-table records of the latest cycle.
func (h *Handler) SnapshotTables(c *fiber.Ctx) error {
	res, _ := h.scheduler.LastResult()
	if res == nil {
		return noData(c)
	}
	return c.JSON(models.SnapshotResponse{
		CollectedAt: res.CollectedAt.Format(time.RFC3339),
		Count:       len(res.Tables),
		Records:     res.Tables,
	})
}

// SnapshotReplicas returns the per-replica records of the latest cycle.
func (h *Handler) SnapshotReplicas(c *fiber.Ctx) error {
	res, _ := h.scheduler.LastResult()
	if res == nil {
		return noData(c)
	}
	return c.JSON(models.SnapshotResponse{
		CollectedAt: res.CollectedAt.Format(time.RFC3339),
		Count:       len(res.Replicas),
		Records:     res.Replicas,
	})
}

// noData writes the 503 returned before the first completed cycle.
func noData(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NO_DATA",
			Message: "No collection cycle has completed yet.",
		},
	})
}

func familyFailures(res *collector.Result) []models.FamilyFailure {
	if len(res.Errors) == 0 {
		return nil
	}
	failures := make([]models.FamilyFailure, 0, len(res.Errors))
	for _, fe := range res.Errors {
		failures = append(failures, models.FamilyFailure{
			Family:  fe.Family,
			Message: fe.Err.Error(),
		})
	}
	return failures
}
