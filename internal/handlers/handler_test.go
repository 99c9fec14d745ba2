package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rethinkmon/rethinkmon/internal/cluster"
	"github.com/rethinkmon/rethinkmon/internal/collector"
	"github.com/rethinkmon/rethinkmon/internal/config"
	"github.com/rethinkmon/rethinkmon/internal/logging"
	"github.com/rethinkmon/rethinkmon/internal/middleware"
	"github.com/rethinkmon/rethinkmon/internal/models"
	"github.com/rethinkmon/rethinkmon/internal/scheduler"
)

func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, zerolog.Disabled)
}

// stubReader returns a one-server cluster.
type stubReader struct{}

var stubServerID = "11111111-1111-1111-1111-111111111111"

func (stubReader) Stats(ctx context.Context) ([]cluster.StatsRow, error) {
	return []cluster.StatsRow{
		cluster.NewStatsRow(
			[]interface{}{"server", stubServerID},
			cluster.Stats{QueryEngine: cluster.Counters{"queries_per_sec": 1.0}},
			nil,
		),
	}, nil
}

func (stubReader) ServerConfigs(ctx context.Context) ([]cluster.Server, error) {
	return []cluster.Server{{ID: uuid.MustParse(stubServerID), Name: "s1"}}, nil
}

func (stubReader) TableConfigs(ctx context.Context) ([]cluster.Table, error) { return nil, nil }
func (stubReader) TableStatuses(ctx context.Context) ([]cluster.TableStatus, error) {
	return nil, nil
}
func (stubReader) ServerStatuses(ctx context.Context) ([]cluster.ServerStatus, error) {
	return nil, nil
}
func (stubReader) Jobs(ctx context.Context) ([]cluster.Job, error) { return nil, nil }
func (stubReader) Close() error                                    { return nil }

func testScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	logger := testLogger()
	col := collector.New(logger, stubReader{}, config.CollectorConfig{
		TopologyPolicy: config.TopologySkip,
		Parallelism:    1,
	})
	return scheduler.New(logger, col, nil, config.CollectorConfig{
		Interval: time.Hour,
		Timeout:  time.Second,
	}, nil)
}

func testApp(t *testing.T, h *Handler) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/health", h.Health)
	app.Get("/v1/status", h.Status)
	app.Get("/v1/snapshot/servers", h.SnapshotServers)
	app.Post("/admin/collect", h.TriggerCollect)
	app.Use(h.NotFound)
	return app
}

func TestHandler_Health(t *testing.T) {
	h := New(testLogger(), testScheduler(t), nil, "1.2.3")
	app := testApp(t, h)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	var healthResp models.HealthResponse
	decodeBody(t, resp.Body, &healthResp)

	if healthResp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", healthResp.Status)
	}
	if healthResp.Version != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", healthResp.Version)
	}
}

func TestHandler_StatusBeforeFirstCycle(t *testing.T) {
	h := New(testLogger(), testScheduler(t), nil, "dev")
	app := testApp(t, h)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/status", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	var status models.StatusResponse
	decodeBody(t, resp.Body, &status)

	if status.Cycles != 0 {
		t.Errorf("Expected 0 cycles, got %d", status.Cycles)
	}
	if !status.Leader {
		t.Error("Agent without election must report itself leader")
	}
}

func TestHandler_SnapshotBeforeFirstCycle(t *testing.T) {
	h := New(testLogger(), testScheduler(t), nil, "dev")
	app := testApp(t, h)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/snapshot/servers", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", fiber.StatusServiceUnavailable, resp.StatusCode)
	}

	var errResp models.ErrorResponse
	decodeBody(t, resp.Body, &errResp)
	if errResp.Error.Code != "NO_DATA" {
		t.Errorf("Expected code NO_DATA, got %s", errResp.Error.Code)
	}
}

func TestHandler_CollectThenSnapshot(t *testing.T) {
	h := New(testLogger(), testScheduler(t), nil, "dev")
	app := testApp(t, h)

	resp, err := app.Test(httptest.NewRequest("POST", "/admin/collect", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	var collectResp models.CollectResponse
	decodeBody(t, resp.Body, &collectResp)
	if collectResp.Status != "ok" {
		t.Errorf("Expected status ok, got %s", collectResp.Status)
	}
	if collectResp.Servers != 1 {
		t.Errorf("Expected 1 server, got %d", collectResp.Servers)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/snapshot/servers", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	var snapshot models.SnapshotResponse
	decodeBody(t, resp.Body, &snapshot)
	if snapshot.Count != 1 {
		t.Errorf("Expected 1 record, got %d", snapshot.Count)
	}
}

// downReader fails every fetch, as an unreachable cluster would.
type downReader struct{}

var errDown = errors.New("connection refused")

func (downReader) Stats(ctx context.Context) ([]cluster.StatsRow, error)       { return nil, errDown }
func (downReader) ServerConfigs(ctx context.Context) ([]cluster.Server, error) { return nil, errDown }
func (downReader) TableConfigs(ctx context.Context) ([]cluster.Table, error)   { return nil, errDown }
func (downReader) TableStatuses(ctx context.Context) ([]cluster.TableStatus, error) {
	return nil, errDown
}
func (downReader) ServerStatuses(ctx context.Context) ([]cluster.ServerStatus, error) {
	return nil, errDown
}
func (downReader) Jobs(ctx context.Context) ([]cluster.Job, error) { return nil, errDown }
func (downReader) Close() error                                    { return nil }

func TestHandler_CollectClusterUnreachable(t *testing.T) {
	logger := testLogger()
	col := collector.New(logger, downReader{}, config.CollectorConfig{
		TopologyPolicy: config.TopologySkip,
		Parallelism:    1,
	})
	sched := scheduler.New(logger, col, nil, config.CollectorConfig{
		Interval: time.Hour,
		Timeout:  time.Second,
	}, nil)
	h := New(logger, sched, nil, "dev")

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	app.Post("/admin/collect", h.TriggerCollect)

	resp, err := app.Test(httptest.NewRequest("POST", "/admin/collect", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Errorf("Expected status %d, got %d", fiber.StatusBadGateway, resp.StatusCode)
	}

	var errResp models.ErrorResponse
	decodeBody(t, resp.Body, &errResp)
	if errResp.Error.Code != "COLLECTION_FAILED" {
		t.Errorf("Expected code COLLECTION_FAILED, got %s", errResp.Error.Code)
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := New(testLogger(), testScheduler(t), nil, "dev")
	app := testApp(t, h)

	resp, err := app.Test(httptest.NewRequest("GET", "/nonexistent", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status %d, got %d", fiber.StatusNotFound, resp.StatusCode)
	}
}

func decodeBody(t *testing.T, body io.ReadCloser, out interface{}) {
	t.Helper()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
}
