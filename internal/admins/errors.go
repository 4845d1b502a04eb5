package admins

import "errors"

var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordUnchanged  = errors.New("new password must be different from current password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrUsernameUnchanged  = errors.New("new username must be different from current username")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
)
