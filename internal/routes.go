package internal

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"ctarchive/internal/config"
	"ctarchive/internal/http"
	"ctarchive/internal/http/middleware"
)

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// The archive UI lives on other origins, so both the pixel and the
	// dashboard API need CORS for the configured origins. GET only.
	corsConfig := &cors.Config{
		AllowOrigins: strings.Join(cfg.GetAllowedOrigins(), ","),
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Referrer, User-Agent",
	}

	// Rate limiting would get in the way of tests; production only.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// The pixel fires once per page view; 120/min per IP is far above any
	// legitimate browsing rate.
	trackRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	trackConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{trackRateLimiter},
		CORSConfig:       corsConfig,
	}

	// Read API: CORS plus the optional shared-secret gate. The gate never
	// applies to /track.
	readAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CustomMiddleware: []fiber.Handler{middleware.APIKeyAuth(cfg.APIKey)},
		CORSConfig:       corsConfig,
	}

	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)
	srv.Get("/metrics", http.MetricsAction)

	// === TRACKING PIXEL ===
	srv.Get("/track", http.TrackAction, trackConfig)
	srv.Options("/track", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, trackConfig)

	// === READ API ===
	srv.Get("/api/stats", http.StatsAction, readAPIConfig)
	srv.Get("/api/search", http.SearchAction, readAPIConfig)
}
