package middlewares

import (
	"github.com/duchm/foliogate/internal/csrf"
	"github.com/gofiber/fiber/v2"
)

const CSRFTokenHeader = "X-CSRF-Token"

// CSRFProtect validates the double-submit token on state-mutating verbs.
// Read-only requests pass through untouched. Must run after Authenticate.
func CSRFProtect(store csrf.Store) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		switch ctx.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return ctx.Next()
		}

		adminID := AdminID(ctx)
		if adminID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authorized")
		}

		presented := ctx.Get(CSRFTokenHeader)
		if presented == "" {
			return fiber.NewError(fiber.StatusForbidden, "CSRF token missing")
		}
		if !store.Validate(ctx.Context(), adminID, presented) {
			return fiber.NewError(fiber.StatusForbidden, "Invalid or expired CSRF token")
		}
		return ctx.Next()
	}
}
