package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"certdocs/internal/apperr"
	"certdocs/internal/http/middleware"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Coded application errors keep their code and message; anything else is
// logged and answered with a bare 500.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	log = log.With().Str("component", "http").Logger()

	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return writeFiberError(c, fe)
		}

		code := apperr.CodeOf(err)
		status := middleware.StatusFor(code)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("request_id", middleware.GetRequestID(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
			return writeError(c, status, string(apperr.CodeInternal), "internal server error")
		}
		return writeError(c, status, string(code), apperr.MessageOf(err))
	}
}

func writeFiberError(c *fiber.Ctx, fe *fiber.Error) error {
	switch fe.Code {
	case fiber.StatusBadRequest:
		return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
	case fiber.StatusNotFound:
		return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
	case fiber.StatusMethodNotAllowed:
		return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
	case fiber.StatusRequestEntityTooLarge:
		return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "payload too large")
	case fiber.StatusServiceUnavailable:
		return writeError(c, fe.Code, "SERVICE_UNAVAILABLE", "dependency unavailable")
	default:
		if fe.Code < fiber.StatusInternalServerError {
			return writeError(c, fe.Code, "BAD_REQUEST", fe.Message)
		}
		return writeError(c, fe.Code, string(apperr.CodeInternal), "internal server error")
	}
}
