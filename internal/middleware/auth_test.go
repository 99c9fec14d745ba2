package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rethinkmon/rethinkmon/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, zerolog.Disabled)
}

// generateAPIKey generates a valid API key of specified length
func generateAPIKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{"valid key - exactly 32 chars", generateAPIKey(32), true},
		{"valid key - longer than 32 chars", generateAPIKey(64), true},
		{"invalid key - too short", generateAPIKey(31), false},
		{"invalid key - empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAPIKey(tt.key); got != tt.expected {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func authTestApp(keys []string, enabled bool) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(testLogger(), keys, enabled))
	app.Get("/protected", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := authTestApp(nil, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}
}

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	app := authTestApp([]string{generateAPIKey(32)}, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	key := generateAPIKey(32)
	app := authTestApp([]string{key}, true)

	headers := []struct {
		name  string
		value string
	}{
		{"X-API-Key", key},
		{"Authorization", "Bearer " + key},
		{"Authorization", key},
	}
	for _, h := range headers {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(h.name, h.value)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to perform request: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("%s header: expected status %d, got %d", h.name, fiber.StatusOK, resp.StatusCode)
		}
	}
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	app := authTestApp([]string{generateAPIKey(32)}, true)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("X-API-Key", generateAPIKey(33))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("abc"); got != "****" {
		t.Errorf("Expected '****', got %q", got)
	}
	if got := maskAPIKey("abcdefgh"); got != "abcd****" {
		t.Errorf("Expected 'abcd****', got %q", got)
	}
}
