package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/orgchartd/orgchart-service/internal/observability"
	"github.com/orgchartd/orgchart-service/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes and exposes the
// request counters.
type HealthHandler struct {
	serviceName string
	version     string
	gateway     persistence.Gateway
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance. metrics may be nil.
func NewHealthHandler(serviceName, version string, gateway persistence.Gateway, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, gateway: gateway, metrics: metrics}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking the storage backend.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	name := h.gateway.Name()
	if err := h.gateway.Ping(ctx); err != nil {
		depStatus[name] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "storage backend unavailable",
				"details": depStatus,
			},
		})
	}
	depStatus[name] = "ok"

	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": depStatus,
	})
}

// Metrics GET /health/metrics.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
