package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "requestID"
)

// RequestLogging assigns a request ID and logs every completed request.
// Handler errors are rendered here so the logged status is the one sent.
func RequestLogging(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(requestIDContextKey, requestID)
		c.Set(requestIDHeader, requestID)

		if err := c.Next(); err != nil {
			if handleErr := c.App().Config().ErrorHandler(c, err); handleErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		} else if status >= fiber.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request completed")

		return nil
	}
}

// RequestLogger returns log annotated with the current request ID.
func RequestLogger(c *fiber.Ctx, log zerolog.Logger) *zerolog.Logger {
	if id, ok := c.Locals(requestIDContextKey).(string); ok && id != "" {
		annotated := log.With().Str("request_id", id).Logger()
		return &annotated
	}
	return &log
}
