package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts returned errors into the response envelope
// so controllers can just return them.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, vErr.Error()))
		}

		var fErr *fiber.Error
		if errors.As(err, &fErr) {
			return ctx.Status(fErr.Code).JSON(ErrorResponse(fErr.Code, fErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
