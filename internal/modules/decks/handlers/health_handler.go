package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// ProviderNamer reports which structured-generation backend is configured
type ProviderNamer interface {
	GetProviderName() string
}

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	llm    ProviderNamer
	checks map[string]Pinger
}

func NewHealthHandler(llm ProviderNamer, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{llm: llm, checks: checks}
}

// GetHealth godoc
// @Summary Service health check
// @Description Reports the generation provider and probes the database and cache
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	provider := "none"
	if h.llm != nil {
		provider = h.llm.GetProviderName()
	}

	status := "ok"
	deps := fiber.Map{}
	for name, check := range h.checks {
		if err := check.Ping(c.UserContext()); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":       status,
		"service":      "deck-api",
		"provider":     provider,
		"dependencies": deps,
	})
}
