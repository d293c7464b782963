package controllers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"gomatch/app/models"
	"gomatch/app/services"
)

// AdminController handles the moderation endpoints and the queue debug
// surface.
type AdminController struct {
	moderation *services.ModerationService
	matching   *services.MatchingService
}

// NewAdminController creates a new admin controller instance
func NewAdminController(moderation *services.ModerationService, matching *services.MatchingService) *AdminController {
	return &AdminController{
		moderation: moderation,
		matching:   matching,
	}
}

// Ban handles POST /admin/ban
func (c *AdminController) Ban(ctx *fiber.Ctx) error {
	var req models.BanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if req.UserID == "" || req.Reason == "" {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Missing required fields: userId, reason",
		})
	}

	if err := c.moderation.Ban(req.UserID, req.Reason); err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"status":  "success",
		"message": fmt.Sprintf("User %s has been banned successfully", req.UserID),
	})
}

// Deprioritize handles POST /admin/deprioritize
func (c *AdminController) Deprioritize(ctx *fiber.Ctx) error {
	var req models.DeprioritizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if req.UserID == "" {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Missing required field: userId",
		})
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	if err := c.moderation.Deprioritize(req.UserID, req.Reason, duration); err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"status":  "success",
		"message": fmt.Sprintf("User %s has been deprioritized for %d minutes", req.UserID, duration),
	})
}

// QueueInfo handles GET /debug/queue/:key. Read-only: an absent partition
// returns an empty queue, not an error.
func (c *AdminController) QueueInfo(ctx *fiber.Ctx) error {
	key, err := url.PathUnescape(ctx.Params("key"))
	if err != nil || key == "" {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid queue key",
		})
	}

	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 10)

	info := c.matching.QueueInfo(key, page, limit)
	return ctx.JSON(fiber.Map{
		"queueKey": info.QueueKey,
		"length":   info.Length,
		"users":    info.Users,
		"pagination": fiber.Map{
			"page":       info.Page,
			"limit":      info.Limit,
			"totalPages": info.TotalPages,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
