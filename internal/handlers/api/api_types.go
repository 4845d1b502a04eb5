package api

import (
	"context"

	"github.com/duchm/foliogate/model"
	"github.com/gofiber/fiber/v2"
)

// AdminService is the credential store surface the handlers consume.
type AdminService interface {
	Authenticate(ctx context.Context, username string, password string) (*model.Admin, error)
	GetAdminByID(ctx context.Context, adminID uint) (*model.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	ChangePassword(ctx context.Context, adminID uint, current string, newPassword string) error
	ChangeUsername(ctx context.Context, adminID uint, newUsername string) (string, error)
	IssueResetToken(ctx context.Context, username string) (*model.Admin, string, error)
	ConsumeResetToken(ctx context.Context, token string, newPassword string) error
}

// OTPIssuer issues and verifies login one-time passcodes.
type OTPIssuer interface {
	Issue(ctx context.Context, admin *model.Admin) error
	Verify(ctx context.Context, admin *model.Admin, candidate string) error
}

// TokenIssuer mints session tokens for authenticated admins.
type TokenIssuer interface {
	Mint(adminID uint) (string, error)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OTPRequired bool   `json:"otpRequired"`
	Message     string `json:"message"`
	Email       string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type ResendOTPRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordRequest struct {
	Username string `json:"username"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ChangeUsernameRequest struct {
	NewUsername string `json:"newUsername"`
}

func jsonError(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"message": message})
}

func jsonMessage(ctx *fiber.Ctx, message string) error {
	return ctx.JSON(fiber.Map{"message": message})
}
