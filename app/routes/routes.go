// app/routes/routes.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"gomatch/app/controllers"
	"gomatch/app/middlewares"
	"gomatch/config"
)

// SetupRoutes wires all HTTP endpoints
func SetupRoutes(
	app *fiber.App,
	matchController *controllers.MatchController,
	adminController *controllers.AdminController,
	systemController *controllers.SystemController,
	preferenceController *controllers.PreferenceController,
) {
	// Health and metrics
	app.Get("/healthz", systemController.Health)
	app.Get("/metrics", systemController.Metrics)

	// API version endpoint
	app.Get("/api/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version":   config.AppVersion,
			"name":      config.AppName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Matching endpoints
	match := app.Group("/match")
	match.Post("/join", matchController.Join)
	match.Post("/cancel", matchController.Cancel)
	match.Post("/mark_end", matchController.MarkEnd)
	match.Post("/feedback", matchController.Feedback)

	// Admin endpoints (JWT protected)
	admin := app.Group("/admin", middlewares.AdminAuthMiddleware())
	admin.Post("/ban", adminController.Ban)
	admin.Post("/deprioritize", adminController.Deprioritize)

	// Debug endpoints (JWT protected, read-only)
	debug := app.Group("/debug", middlewares.AdminAuthMiddleware())
	debug.Get("/queue/:key", adminController.QueueInfo)

	// Legacy preference profiles
	app.Get("/preferences", preferenceController.List)
	app.Post("/preferences", preferenceController.Create)
}
