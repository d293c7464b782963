package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"gomatch/app/models"
	"gomatch/app/services"
	"gomatch/config"
	"gomatch/redis"
)

// MatchController handles the primary matching endpoints: join, cancel,
// mark_end and feedback.
type MatchController struct {
	matching *services.MatchingService
	matches  *services.MatchService
	feedback *services.FeedbackService
	redisSvc *redis.Service
}

// NewMatchController creates a new match controller instance
func NewMatchController(matching *services.MatchingService, matches *services.MatchService, feedback *services.FeedbackService, redisSvc *redis.Service) *MatchController {
	return &MatchController{
		matching: matching,
		matches:  matches,
		feedback: feedback,
		redisSvc: redisSvc,
	}
}

// statusCode maps engine errors to HTTP status codes
func statusCode(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// errorJSON renders an engine error without leaking internal state
func errorJSON(ctx *fiber.Ctx, err error) error {
	code := statusCode(err)
	message := err.Error()
	if code == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	return ctx.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// Join handles POST /match/join
func (c *MatchController) Join(ctx *fiber.Ctx) error {
	var req models.JoinRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	// Validate required fields
	if req.UserID == "" || req.Mode == "" {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Missing required fields: userId, mode",
		})
	}

	resp, err := c.matching.Join(req)
	if err != nil {
		return errorJSON(ctx, err)
	}

	// Mirror the served response so operators can inspect recently used
	// request ids without touching engine state.
	if req.RequestID != "" && c.redisSvc != nil {
		ttl := time.Duration(config.IdempotencyTTLMinutes) * time.Minute
		c.redisSvc.CacheIdempotencyRecord(req.UserID, req.RequestID, resp, ttl)
	}
	return ctx.JSON(resp)
}

// Cancel handles POST /match/cancel
func (c *MatchController) Cancel(ctx *fiber.Ctx) error {
	var req models.CancelRequest
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

	if err := c.matching.Cancel(req); err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"status": "cancelled",
	})
}

// MarkEnd handles POST /match/mark_end
func (c *MatchController) MarkEnd(ctx *fiber.Ctx) error {
	var req models.MarkEndRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if req.MatchID == "" || req.UserID == "" {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Missing required fields: matchId, userId",
		})
	}

	if _, err := c.matches.MarkEnd(req.MatchID, req.UserID, req.Reason); err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"status":  "success",
		"message": "Match ended successfully",
	})
}

// Feedback handles POST /match/feedback
func (c *MatchController) Feedback(ctx *fiber.Ctx) error {
	var req models.FeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	feedbackID, err := c.feedback.Submit(req)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"status":     "success",
		"message":    "Feedback submitted successfully",
		"feedbackId": feedbackID,
	})
}
