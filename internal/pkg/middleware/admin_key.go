package middleware

import (
	"crypto/hmac"
	"log"
	"strings"

	"github.com/atolyesoft/DrapeDesk/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
)

// AdminKeyMiddleware gates administrative billing endpoints behind a shared
// API key. Full user authentication and role management live in front of
// this service; this is only the capability check the engine requires from
// its caller.
func AdminKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		configured := strings.TrimSpace(env.GetEnv("ADMIN_API_KEY", ""))
		if configured == "" {
			log.Print("admin key middleware: ADMIN_API_KEY is not configured, rejecting request")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Admin API is not configured"})
		}

		provided := extractAdminKey(c)
		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing admin API key"})
		}
		if !hmac.Equal([]byte(provided), []byte(configured)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid admin API key"})
		}

		return c.Next()
	}
}

func extractAdminKey(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Get("X-Admin-Key")); v != "" {
		return v
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
