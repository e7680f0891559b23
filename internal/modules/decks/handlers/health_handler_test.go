package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type namedProvider string

func (n namedProvider) GetProviderName() string { return string(n) }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthResponse(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/health", h.GetHealth)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, body
}

func TestHealthOK(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	code, body := healthResponse(t, NewHealthHandler(namedProvider("Groq"), map[string]Pinger{"database": ok}))

	if code != fiber.StatusOK || body["status"] != "ok" || body["provider"] != "Groq" {
		t.Fatalf("unexpected health %d %v", code, body)
	}
}

func TestHealthDegraded(t *testing.T) {
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	code, body := healthResponse(t, NewHealthHandler(nil, map[string]Pinger{"redis": down}))

	if code != fiber.StatusServiceUnavailable || body["status"] != "degraded" || body["provider"] != "none" {
		t.Fatalf("unexpected health %d %v", code, body)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["redis"] != "connection refused" {
		t.Fatalf("unexpected dependencies %v", deps)
	}
}
