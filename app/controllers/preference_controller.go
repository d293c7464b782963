package controllers

import (
	"github.com/gofiber/fiber/v2"

	"gomatch/app/models"
	"gomatch/app/services"
)

// PreferenceController handles the legacy preference profile CRUD
type PreferenceController struct {
	profiles *services.PreferenceProfileService
}

// NewPreferenceController creates a new preference controller instance
func NewPreferenceController(profiles *services.PreferenceProfileService) *PreferenceController {
	return &PreferenceController{profiles: profiles}
}

// createPreferenceRequest represents a stored preference profile payload
type createPreferenceRequest struct {
	UserID      string                 `json:"userId"`
	Preferences models.UserPreferences `json:"preferences"`
}

// List handles GET /preferences
func (c *PreferenceController) List(ctx *fiber.Ctx) error {
	profiles, err := c.profiles.List(ctx.Context())
	if err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"data":    profiles,
		"message": "Preferences fetched",
	})
}

// Create handles POST /preferences
func (c *PreferenceController) Create(ctx *fiber.Ctx) error {
	var req createPreferenceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid preference payload",
			"error":   err.Error(),
		})
	}

	if req.UserID == "" {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Missing required field: userId",
		})
	}

	profile, err := c.profiles.Upsert(ctx.Context(), req.UserID, req.Preferences)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.Status(201).JSON(fiber.Map{
		"data":    profile,
		"message": "Preference created",
	})
}
