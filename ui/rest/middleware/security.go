package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SecurityHeaders sets the fixed response headers spec §6 requires on
// every response, production-only HSTS included.
func SecurityHeaders(production bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Content-Security-Policy", "default-src 'none'")
		if production {
			c.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		return c.Next()
	}
}

// IPFilter enforces the admin allowlist and the global denylist hardening
// knobs (spec §6). An empty allowlist means every IP may reach admin
// routes; a non-empty one restricts them. The denylist always applies.
func IPFilter(adminAllowlist, denylist []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		for _, blocked := range denylist {
			if strings.TrimSpace(blocked) == ip {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": 403, "code": "ip_denied", "message": "forbidden"})
			}
		}
		if len(adminAllowlist) == 0 || !isAdminPath(c.Path()) {
			return c.Next()
		}
		for _, allowed := range adminAllowlist {
			if strings.TrimSpace(allowed) == ip {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": 403, "code": "ip_denied", "message": "forbidden"})
	}
}

func isAdminPath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/organizations") ||
		strings.HasPrefix(path, "/api/v1/erasure-requests") ||
		strings.HasPrefix(path, "/api/v1/provision") ||
		strings.HasPrefix(path, "/api/v1/deprovision")
}
