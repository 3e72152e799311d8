package http

import (
	"errors"
	"time"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"ctarchive/internal/events"
	"ctarchive/internal/metrics"
)

// TrackAction ingests one tracking-pixel hit: GET /track?d=<base64 of url>.
// The pixel fires and forgets, so the response is always HTTP 200; bad input
// gets {ok:false} rather than an error status that would surface in the
// caller's console.
func TrackAction(ctx *cartridge.Context) error {
	encoded := ctx.Query("d")
	if encoded == "" {
		return ctx.JSON(fiber.Map{"ok": false})
	}

	pv, err := events.Normalize(
		encoded,
		time.Now().UTC(),
		resolveVisitorKey(ctx.Ctx),
		ctx.Get("Referer"),
		ctx.Get("User-Agent"),
	)
	if err != nil {
		metrics.NormalizationFailures.WithLabelValues(normalizationReason(err)).Inc()
		ctx.Logger.Debug("Rejected tracking payload", slog.Any("error", err))
		return ctx.JSON(fiber.Map{"ok": false})
	}

	if err := events.CollectPageView(ctx.DBManager, ctx.Logger, pv); err != nil {
		// Store failures are the one internal case; still HTTP 200.
		return ctx.JSON(fiber.Map{"ok": false, "error": "internal"})
	}

	return ctx.JSON(fiber.Map{"ok": true})
}

func normalizationReason(err error) string {
	switch {
	case errors.Is(err, events.ErrBadEncoding):
		return "bad_encoding"
	case errors.Is(err, events.ErrNotAURL):
		return "not_a_url"
	case errors.Is(err, events.ErrBadURL):
		return "bad_url"
	default:
		return "unknown"
	}
}
