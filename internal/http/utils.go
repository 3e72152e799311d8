package http

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// resolveVisitorKey picks the client address used as the visitor key, with
// fixed precedence: the trusted proxy header, then the first entry of
// X-Forwarded-For, then the direct connection address. The result is an
// identifier for deduplication, not a verified identity.
func resolveVisitorKey(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	remoteAddr := c.Context().RemoteAddr().String()
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
		return host
	}
	if remoteAddr != "" {
		return remoteAddr
	}

	return c.IP()
}
