package middleware

import (
	"errors"

	"stockledger/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// ErrorHandler renders errors that escape the handlers as {"error": ...} with the trace id.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		msg = e.Message
	} else {
		logger.Error(c.UserContext()).Err(err).Str("path", c.Path()).Msg("Unhandled error")
	}

	response := fiber.Map{"error": msg}
	span := trace.SpanFromContext(c.UserContext())
	if span.SpanContext().IsValid() {
		response["trace_id"] = span.SpanContext().TraceID().String()
	}
	return c.Status(code).JSON(response)
}
