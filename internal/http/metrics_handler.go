package http

import (
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/karloscodes/cartridge"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var prometheusHandler = adaptor.HTTPHandler(promhttp.Handler())

// MetricsAction exposes the Prometheus collectors.
func MetricsAction(ctx *cartridge.Context) error {
	return prometheusHandler(ctx.Ctx)
}
