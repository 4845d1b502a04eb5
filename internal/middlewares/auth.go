package middlewares

import (
	"context"
	"strings"
	"time"

	"github.com/duchm/foliogate/model"
	"github.com/gofiber/fiber/v2"
)

// TokenVerifier validates a bearer token and returns the subject and
// issue time it carries.
type TokenVerifier interface {
	Verify(tokenString string) (uint, time.Time, error)
}

// AdminGetter is the slice of the admin service the guard needs to
// re-fetch account state per request.
type AdminGetter interface {
	GetAdminByID(ctx context.Context, adminID uint) (*model.Admin, error)
}

const adminIDLocalKey = "adminID"

// AdminID returns the authenticated admin id attached by Authenticate,
// or 0 when the request did not pass the guard.
func AdminID(ctx *fiber.Ctx) uint {
	adminID, _ := ctx.Locals(adminIDLocalKey).(uint)
	return adminID
}

// Authenticate is the session guard. It validates the bearer token, then
// re-fetches the account and rejects tokens issued before the account's
// last credential change. The account row is fetched on every request so a
// credential rotation takes effect immediately for all live sessions.
// Every failure leg answers with the same 401.
func Authenticate(tokenIssuer TokenVerifier, adminService AdminGetter) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authorized")
		}

		adminID, issuedAt, err := tokenIssuer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authorized")
		}

		admin, err := adminService.GetAdminByID(ctx.Context(), adminID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authorized")
		}

		if admin.PasswordChangedAt != nil && issuedAt.Unix() < admin.PasswordChangedAt.Unix() {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authorized")
		}

		ctx.Locals(adminIDLocalKey, admin.ID)
		return ctx.Next()
	}
}
