package middleware

import (
	"strconv"
	"time"

	"stockledger/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count and latency per route template.
func Metrics(m *metrics.HTTP) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		m.Latency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		m.Requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		return err
	}
}
