package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rethinkmon/rethinkmon/internal/collector"
	"github.com/rethinkmon/rethinkmon/internal/logging"
	"github.com/rethinkmon/rethinkmon/internal/models"
)

// ErrorHandler returns the app-level error handler. Collection errors
// surfacing from an admin-triggered cycle map onto their own statuses:
// an unreachable cluster is a bad gateway, an inconsistent topology under
// the fail policy is a conflict.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "ERROR"
		message := err.Error()

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, collector.ErrCollectionFailed):
			code = fiber.StatusBadGateway
			errCode = "COLLECTION_FAILED"
		case errors.Is(err, collector.ErrInconsistentTopology):
			code = fiber.StatusConflict
			errCode = "INCONSISTENT_TOPOLOGY"
		default:
			message = "Internal Server Error"
		}

		logger.Error("Request error",
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err)

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    errCode,
				Message: message,
			},
		})
	}
}
