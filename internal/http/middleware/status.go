package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"certdocs/internal/apperr"
)

// StatusFor maps an application error code to its HTTP status.
func StatusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.CodeForbidden:
		return fiber.StatusForbidden
	case apperr.CodeNotFound:
		return fiber.StatusNotFound
	case apperr.CodeValidation:
		return fiber.StatusBadRequest
	case apperr.CodeInvalidTransition, apperr.CodeInvalidState, apperr.CodeConflict:
		return fiber.StatusConflict
	case apperr.CodePreconditionFailed:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// statusOf is the status the error handler will eventually write for err.
func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return StatusFor(apperr.CodeOf(err))
}
