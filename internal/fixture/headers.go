package fixture

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeadersMiddleware adds security and no-cache headers, and a request ID.
func HeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		c.Set("Cache-Control", "no-store")

		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("X-Request-ID", requestID)
		c.Locals("requestID", requestID)

		return c.Next()
	}
}
