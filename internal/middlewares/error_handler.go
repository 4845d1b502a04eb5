package middlewares

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler renders errors as JSON. In debug mode the underlying
// message is passed through; otherwise 5xx responses get a generic body so
// internals never leak to callers.
func NewErrorHandler(debug bool) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}
		if code >= fiber.StatusInternalServerError {
			slog.Error("Unhandled error", "path", ctx.Path(), "code", code, "error", err)
			if !debug {
				message = "Internal server error"
			}
		}
		return ctx.Status(code).JSON(fiber.Map{"message": message})
	}
}
