package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/duchm/foliogate/internal/admins"
	"github.com/duchm/foliogate/internal/audit"
	"github.com/duchm/foliogate/internal/csrf"
	"github.com/duchm/foliogate/internal/mail"
	"github.com/duchm/foliogate/internal/middlewares"
	"github.com/duchm/foliogate/internal/otp"
	"github.com/gofiber/fiber/v2"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidOTP         = "Invalid OTP"
	msgOTPExpired         = "OTP has expired. Please request a new login."
	msgOTPSendFailed      = "Failed to send OTP. Please try again."
	msgGenericOTPResent   = "If an account with that email exists, a new OTP has been sent."
	msgGenericResetSent   = "If an account with that username exists, a password reset link has been sent."
	msgMailNotConfigured  = "Email service is not configured. Please contact the administrator."
)

type AuthHandler struct {
	adminService AdminService
	otpIssuer    OTPIssuer
	tokenIssuer  TokenIssuer
	csrfStore    csrf.Store
	mailSender   mail.MailSender
	recorder     *audit.Recorder
	frontendURL  string
}

// maskEmail hides most of the local part of the otp delivery address, e.g.
// "someone@example.com" -> "s*****e@example.com".
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 2 {
		return email
	}
	local := email[:at]
	return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + email[at:]
}

// PostLogin verifies the password and, on success, issues and delivers an
// otp. No session token is minted here; that happens at otp verification.
func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	var req LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Please provide username and password")
	}

	admin, err := h.adminService.Authenticate(ctx.Context(), req.Username, req.Password)
	if errors.Is(err, admins.ErrInvalidCredentials) {
		return jsonError(ctx, fiber.StatusUnauthorized, msgInvalidCredentials)
	}
	if err != nil {
		return err
	}

	if err := h.otpIssuer.Issue(ctx.Context(), admin); err != nil {
		if errors.Is(err, otp.ErrDeliveryFailed) {
			return jsonError(ctx, fiber.StatusInternalServerError, msgOTPSendFailed)
		}
		return err
	}

	h.recorder.LoginSuccess(admin.ID, audit.RequestInfoFromCtx(ctx), map[string]string{"username": admin.Username})

	return ctx.JSON(LoginResponse{
		OTPRequired: true,
		Message:     "OTP sent to your email",
		Email:       maskEmail(admin.Username),
	})
}

// PostVerifyOTP exchanges a pending otp for a session token. A missing and
// a wrong otp answer identically; only expiry gets its own message.
func (h *AuthHandler) PostVerifyOTP(ctx *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.OTP == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Email and OTP are required")
	}

	admin, err := h.adminService.GetAdminByUsername(ctx.Context(), req.Email)
	if errors.Is(err, admins.ErrAdminNotFound) {
		return jsonError(ctx, fiber.StatusUnauthorized, msgInvalidOTP)
	}
	if err != nil {
		return err
	}

	switch err := h.otpIssuer.Verify(ctx.Context(), admin, req.OTP); {
	case errors.Is(err, otp.ErrOTPExpired):
		return jsonError(ctx, fiber.StatusUnauthorized, msgOTPExpired)
	case errors.Is(err, otp.ErrNoPendingOTP):
		return jsonError(ctx, fiber.StatusUnauthorized, msgInvalidOTP)
	case errors.Is(err, otp.ErrOTPMismatch):
		h.recorder.OTPVerificationFailure(admin.ID, audit.RequestInfoFromCtx(ctx), map[string]string{"username": admin.Username})
		return jsonError(ctx, fiber.StatusUnauthorized, msgInvalidOTP)
	case err != nil:
		return err
	}

	h.recorder.OTPVerificationSuccess(admin.ID, audit.RequestInfoFromCtx(ctx), map[string]string{"username": admin.Username})

	sessionToken, err := h.tokenIssuer.Mint(admin.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(VerifyOTPResponse{
		Token:    sessionToken,
		Username: admin.Username,
		Message:  "Login successful",
	})
}

// PostResendOTP reissues the pending otp. Unknown accounts get the same
// generic answer as known ones.
func (h *AuthHandler) PostResendOTP(ctx *fiber.Ctx) error {
	var req ResendOTPRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Email is required")
	}

	admin, err := h.adminService.GetAdminByUsername(ctx.Context(), req.Email)
	if errors.Is(err, admins.ErrAdminNotFound) {
		return jsonMessage(ctx, msgGenericOTPResent)
	}
	if err != nil {
		return err
	}

	if err := h.otpIssuer.Issue(ctx.Context(), admin); err != nil {
		if errors.Is(err, otp.ErrDeliveryFailed) {
			return jsonError(ctx, fiber.StatusInternalServerError, msgOTPSendFailed)
		}
		return err
	}
	return jsonMessage(ctx, msgGenericOTPResent)
}

// PostForgotPassword issues a reset token and mails a reset link. The
// response never reveals whether the account exists.
func (h *AuthHandler) PostForgotPassword(ctx *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Username is required")
	}

	admin, resetToken, err := h.adminService.IssueResetToken(ctx.Context(), req.Username)
	if err != nil {
		return err
	}
	if admin == nil {
		return jsonMessage(ctx, msgGenericResetSent)
	}

	resetLink := fmt.Sprintf("%s/cms/reset-password?token=%s", h.frontendURL, resetToken)
	if err := mail.SendResetPasswordLink(h.mailSender, admin.Username, resetLink); err != nil {
		if errors.Is(err, mail.ErrNotConfigured) {
			return jsonError(ctx, fiber.StatusInternalServerError, msgMailNotConfigured)
		}
		return err
	}
	return jsonMessage(ctx, msgGenericResetSent)
}

// PostResetPassword consumes a reset token and sets the new password.
func (h *AuthHandler) PostResetPassword(ctx *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Token and new password are required")
	}

	switch err := h.adminService.ConsumeResetToken(ctx.Context(), req.Token, req.NewPassword); {
	case errors.Is(err, admins.ErrPasswordTooShort):
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, admins.ErrResetTokenInvalid):
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid or expired reset token")
	case err != nil:
		return err
	}
	return jsonMessage(ctx, "Password reset successfully. You can now login with your new password.")
}

// GetCSRFToken issues a fresh double-submit token for the authenticated
// admin, invalidating the previous one.
func (h *AuthHandler) GetCSRFToken(ctx *fiber.Ctx) error {
	adminID := middlewares.AdminID(ctx)
	csrfToken, err := h.csrfStore.Issue(ctx.Context(), adminID)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"csrfToken": csrfToken})
}

// PostChangePassword rotates the password of the authenticated admin. On
// success all previously issued session tokens become stale.
func (h *AuthHandler) PostChangePassword(ctx *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Current password and new password are required")
	}

	adminID := middlewares.AdminID(ctx)
	switch err := h.adminService.ChangePassword(ctx.Context(), adminID, req.CurrentPassword, req.NewPassword); {
	case errors.Is(err, admins.ErrPasswordTooShort):
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, admins.ErrInvalidCredentials):
		return jsonError(ctx, fiber.StatusUnauthorized, "Current password is incorrect")
	case errors.Is(err, admins.ErrPasswordUnchanged):
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}

	h.recorder.PasswordChange(adminID, audit.RequestInfoFromCtx(ctx))

	return ctx.JSON(fiber.Map{
		"message":     "Password changed successfully. Please log in again.",
		"success":     true,
		"forceLogout": true,
	})
}

// PutChangeUsername updates the login handle of the authenticated admin.
// Like a password change it invalidates all existing session tokens.
func (h *AuthHandler) PutChangeUsername(ctx *fiber.Ctx) error {
	var req ChangeUsernameRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.NewUsername) == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "New username (email) is required")
	}

	adminID := middlewares.AdminID(ctx)
	admin, err := h.adminService.GetAdminByID(ctx.Context(), adminID)
	if err != nil {
		return err
	}
	oldUsername := admin.Username

	newUsername, err := h.adminService.ChangeUsername(ctx.Context(), adminID, req.NewUsername)
	switch {
	case errors.Is(err, admins.ErrInvalidEmail):
		return jsonError(ctx, fiber.StatusBadRequest, "Please provide a valid email address")
	case errors.Is(err, admins.ErrUsernameUnchanged):
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, admins.ErrUsernameTaken):
		return jsonError(ctx, fiber.StatusBadRequest, "This username (email) is already in use")
	case err != nil:
		return err
	}

	h.recorder.UsernameChange(adminID, audit.RequestInfoFromCtx(ctx), map[string]string{
		"oldUsername": oldUsername,
		"newUsername": newUsername,
	})

	return ctx.JSON(fiber.Map{
		"message":     "Username updated. Please log in again.",
		"newUsername": newUsername,
		"forceLogout": true,
	})
}

// PostLogout is audit-only: tokens are stateless, so there is nothing to
// revoke besides the csrf token. Never fails the caller.
func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	adminID := middlewares.AdminID(ctx)

	metadata := map[string]string{}
	if admin, err := h.adminService.GetAdminByID(ctx.Context(), adminID); err == nil {
		metadata["username"] = admin.Username
	}
	h.recorder.Logout(adminID, audit.RequestInfoFromCtx(ctx), metadata)

	if err := h.csrfStore.Revoke(ctx.Context(), adminID); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true})
}

func NewAuthHandler(
	adminService AdminService,
	otpIssuer OTPIssuer,
	tokenIssuer TokenIssuer,
	csrfStore csrf.Store,
	mailSender mail.MailSender,
	recorder *audit.Recorder,
	frontendURL string,
) *AuthHandler {
	return &AuthHandler{
		adminService: adminService,
		otpIssuer:    otpIssuer,
		tokenIssuer:  tokenIssuer,
		csrfStore:    csrfStore,
		mailSender:   mailSender,
		recorder:     recorder,
		frontendURL:  frontendURL,
	}
}
