package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/apperr"
)

// detail mirrors the {"detail": "..."} error body the frontend expects.
type detail struct {
	Detail string `json:"detail"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrCapacityExceeded), errors.Is(err, apperr.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrInvalidTransition):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrInvalidArgument):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// errorHandler turns service errors into JSON responses. The error chain
// decides the status; unknown errors become an opaque 500.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(detail{Detail: fiberErr.Message})
		}

		status := statusFor(err)
		if status == fiber.StatusInternalServerError {
			logger.Error("Unhandled request error",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(status).JSON(detail{Detail: "internal server error"})
		}

		return c.Status(status).JSON(detail{Detail: err.Error()})
	}
}
