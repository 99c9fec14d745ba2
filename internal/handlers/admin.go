package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rethinkmon/rethinkmon/internal/models"
)

// TriggerCollect runs one collection cycle immediately, outside the
// schedule. The cycle still runs under the configured cycle timeout.
func (h *Handler) TriggerCollect(c *fiber.Ctx) error {
	h.logger.Info("Manual collection cycle triggered", "ip", c.IP())

	res, err := h.scheduler.RunOnce(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	// A cycle with every family down means the cluster is unreachable;
	// surface that through the error handler instead of an "ok" envelope.
	if res.AllFailed() {
		return res.Errors[0]
	}

	status := "ok"
	if res.Failed() {
		status = "partial"
	}

	return c.JSON(models.CollectResponse{
		Status:   status,
		Duration: res.Duration.String(),
		Servers:  len(res.Servers),
		Tables:   len(res.Tables),
		Replicas: len(res.Replicas),
		Failures: familyFailures(res),
	})
}
