package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"ctarchive/internal/events"
)

// SearchAction serves raw event lookup: GET /api/search?q=<terms>. Every
// whitespace-separated term must appear in the raw URL; results come back
// newest first, capped, without visitor deduplication.
func SearchAction(ctx *cartridge.Context) error {
	ctx.Set("Cache-Control", "no-store")

	results, err := events.SearchPageViews(ctx.DB(), ctx.Query("q"))
	if err != nil {
		ctx.Logger.Error("Failed to search page views", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return ctx.JSON(fiber.Map{"results": results})
}
