package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/orgchartd/orgchart-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	OrgChart *handlers.OrgChartHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1")

	chart := api.Group("/org-chart")
	chart.Get("", cfg.OrgChart.Tree)
	chart.Get("/root", cfg.OrgChart.Root)
	chart.Get("/export", cfg.OrgChart.Export)
	chart.Post("/load", cfg.OrgChart.Load)
	chart.Post("/save", cfg.OrgChart.Save)

	departments := api.Group("/departments")
	departments.Get("", cfg.OrgChart.ListDepartments)
	departments.Post("", cfg.OrgChart.CreateDepartment)
	departments.Get("/:id", cfg.OrgChart.GetDepartment)
	departments.Get("/:id/path", cfg.OrgChart.DepartmentPath)
	departments.Post("/:id/activities", cfg.OrgChart.CreateActivity)

	api.Get("/activities/:id", cfg.OrgChart.GetActivity)
	api.Get("/stats", cfg.OrgChart.Stats)
}
