package middlewares

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"gomatch/app/utils"
)

// AdminAuthMiddleware validates the bearer JWT on admin routes
func AdminAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get the Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Authorization header is required",
			})
		}

		// Check if the header starts with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid authorization header format",
			})
		}

		// Extract and validate the token
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateAdminToken(tokenString)
		if err != nil {
			log.Printf("Admin token validation failed: %v", err)
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid admin token",
			})
		}

		c.Locals("admin_subject", claims.Subject)
		return c.Next()
	}
}
