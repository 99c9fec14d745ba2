package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/rethinkmon/rethinkmon/internal/collector"
	"github.com/rethinkmon/rethinkmon/internal/models"
)

func errorTestApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(testLogger()),
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return err
	})
	return app
}

func performBoom(t *testing.T, app *fiber.App) (int, models.ErrorResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return resp.StatusCode, errResp
}

func TestErrorHandler_FiberError(t *testing.T) {
	app := errorTestApp(fiber.NewError(fiber.StatusBadRequest, "bad input"))

	status, errResp := performBoom(t, app)
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", fiber.StatusBadRequest, status)
	}
	if errResp.Error.Message != "bad input" {
		t.Errorf("Expected message 'bad input', got %q", errResp.Error.Message)
	}
}

func TestErrorHandler_CollectionFailed(t *testing.T) {
	err := fmt.Errorf("%w: connection refused", collector.ErrCollectionFailed)
	app := errorTestApp(err)

	status, errResp := performBoom(t, app)
	if status != fiber.StatusBadGateway {
		t.Errorf("Expected status %d, got %d", fiber.StatusBadGateway, status)
	}
	if errResp.Error.Code != "COLLECTION_FAILED" {
		t.Errorf("Expected code COLLECTION_FAILED, got %s", errResp.Error.Code)
	}
}

func TestErrorHandler_InconsistentTopology(t *testing.T) {
	err := fmt.Errorf("%w: table 5f1c...", collector.ErrInconsistentTopology)
	app := errorTestApp(err)

	status, errResp := performBoom(t, app)
	if status != fiber.StatusConflict {
		t.Errorf("Expected status %d, got %d", fiber.StatusConflict, status)
	}
	if errResp.Error.Code != "INCONSISTENT_TOPOLOGY" {
		t.Errorf("Expected code INCONSISTENT_TOPOLOGY, got %s", errResp.Error.Code)
	}
}

func TestErrorHandler_GenericError(t *testing.T) {
	app := errorTestApp(fmt.Errorf("something broke"))

	status, errResp := performBoom(t, app)
	if status != fiber.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", fiber.StatusInternalServerError, status)
	}
	if errResp.Error.Message != "Internal Server Error" {
		t.Errorf("Internal details must not leak, got %q", errResp.Error.Message)
	}
}
