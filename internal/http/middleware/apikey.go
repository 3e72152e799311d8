// Package middleware holds the request middleware shared by the read
// endpoints.
package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// APIKeyAuth gates a route behind the configured shared secret, matched
// against the key query parameter. An empty configured key disables the
// gate entirely; the tracking pixel is never gated.
func APIKeyAuth(configuredKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if configuredKey == "" {
			return c.Next()
		}

		if !secureCompare(c.Query("key"), configuredKey) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		return c.Next()
	}
}

// secureCompare performs constant-time string comparison
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var result byte
	for i := 0; i < len(a); i++ {
		result |= a[i] ^ b[i]
	}
	return result == 0
}
