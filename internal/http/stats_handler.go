package http

import (
	"time"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"ctarchive/internal/stats"
)

// StatsAction serves the full statistics payload for one period:
// GET /api/stats?period=all|today|week|month. Unknown periods fall back
// to all.
func StatsAction(ctx *cartridge.Context) error {
	ctx.Set("Cache-Control", "no-store")

	period := stats.ParsePeriod(ctx.Query("period", string(stats.PeriodAll)))

	payload, err := stats.Fetch(ctx.Ctx.UserContext(), ctx.DB(), ctx.Logger, period, time.Now().UTC())
	if err != nil {
		ctx.Logger.Error("Failed to compute stats payload",
			slog.String("period", string(period)),
			slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return ctx.JSON(payload)
}
