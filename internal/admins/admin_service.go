package admins

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/duchm/foliogate/internal/common"
	"github.com/duchm/foliogate/model"
	"github.com/duchm/foliogate/params"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminService is the credential store: it owns the admin account's
// password hash and its transient secrets (reset token, pending otp).
type AdminService struct {
	adminRepo AdminRepository
}

func (s *AdminService) GetAdminByID(ctx context.Context, adminID uint) (*model.Admin, error) {
	admin, err := s.adminRepo.FirstByID(ctx, adminID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdminNotFound
	}
	return admin, err
}

func (s *AdminService) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	admin, err := s.adminRepo.FirstByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdminNotFound
	}
	return admin, err
}

// Authenticate verifies the password of the named account. Unknown username
// and wrong password both fail with ErrInvalidCredentials so callers cannot
// tell accounts apart.
func (s *AdminService) Authenticate(ctx context.Context, username string, password string) (*model.Admin, error) {
	admin, err := s.adminRepo.FirstByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// ChangePassword rotates the account password. Every session token issued
// before the rotation is invalidated through PasswordChangedAt.
func (s *AdminService) ChangePassword(ctx context.Context, adminID uint, current string, newPassword string) error {
	if len(newPassword) < params.MinPasswordLength {
		return ErrPasswordTooShort
	}

	admin, err := s.GetAdminByID(ctx, adminID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(newPassword)); err == nil {
		return ErrPasswordUnchanged
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.adminRepo.Updates(ctx, admin.ID, map[string]interface{}{
		ColPassword:          string(passwordHash),
		ColPasswordChangedAt: time.Now(),
	})
}

// ChangeUsername updates the login handle. The username is also the delivery
// address for OTP and reset mail, so rotating it bumps PasswordChangedAt and
// invalidates existing tokens the same way a password change does.
func (s *AdminService) ChangeUsername(ctx context.Context, adminID uint, newUsername string) (string, error) {
	newUsername = strings.ToLower(strings.TrimSpace(newUsername))
	if _, err := mail.ParseAddress(newUsername); err != nil {
		return "", ErrInvalidEmail
	}

	admin, err := s.GetAdminByID(ctx, adminID)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(admin.Username, newUsername) {
		return "", ErrUsernameUnchanged
	}
	taken, err := s.adminRepo.ExistsOther(ctx, newUsername, admin.ID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrUsernameTaken
	}

	err = s.adminRepo.Updates(ctx, admin.ID, map[string]interface{}{
		ColUsername:          newUsername,
		ColPasswordChangedAt: time.Now(),
	})
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return "", ErrUsernameTaken
	}
	if err != nil {
		return "", err
	}
	return newUsername, nil
}

// IssueResetToken generates a single-use reset token for the named account.
// Unknown usernames are a silent no-op: the caller must answer with the same
// generic message either way, so (nil, "", nil) is returned.
func (s *AdminService) IssueResetToken(ctx context.Context, username string) (*model.Admin, string, error) {
	admin, err := s.adminRepo.FirstByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	token, err := common.GenerateToken(params.ResetTokenLength)
	if err != nil {
		return nil, "", err
	}
	expiry := time.Now().Add(params.ResetTokenExpiration)
	err = s.adminRepo.Updates(ctx, admin.ID, map[string]interface{}{
		ColResetToken:       token,
		ColResetTokenExpiry: expiry,
	})
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

// ConsumeResetToken exchanges an unexpired reset token for a new password.
// The token is cleared on success so it cannot be replayed.
func (s *AdminService) ConsumeResetToken(ctx context.Context, token string, newPassword string) error {
	if len(newPassword) < params.MinPasswordLength {
		return ErrPasswordTooShort
	}

	admin, err := s.adminRepo.FirstByResetToken(ctx, token, time.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.adminRepo.Updates(ctx, admin.ID, map[string]interface{}{
		ColPassword:         string(passwordHash),
		ColResetToken:       nil,
		ColResetTokenExpiry: nil,
	})
}

// StoreLoginOTP saves the hash and expiry of a freshly issued otp code,
// replacing any pending one.
func (s *AdminService) StoreLoginOTP(ctx context.Context, adminID uint, otpHash string, expiry time.Time) error {
	return s.adminRepo.Updates(ctx, adminID, map[string]interface{}{
		ColLoginOTP:       otpHash,
		ColLoginOTPExpiry: expiry,
	})
}

// ClearLoginOTP drops the pending otp, if any.
func (s *AdminService) ClearLoginOTP(ctx context.Context, adminID uint) error {
	return s.adminRepo.Updates(ctx, adminID, map[string]interface{}{
		ColLoginOTP:       nil,
		ColLoginOTPExpiry: nil,
	})
}

// CreateAdmin provisions the administrator account. Used by the CLI only.
func (s *AdminService) CreateAdmin(ctx context.Context, username string, password string) (*model.Admin, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if _, err := mail.ParseAddress(username); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < params.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := model.Admin{
		Username: username,
		Password: string(passwordHash),
	}
	err = s.adminRepo.Create(ctx, &admin)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return nil, ErrUsernameTaken
	}
	return &admin, err
}

// ResetAdminPassword force-sets a new password without checking the old one.
// Used by the CLI only; still bumps PasswordChangedAt.
func (s *AdminService) ResetAdminPassword(ctx context.Context, username string, newPassword string) error {
	if len(newPassword) < params.MinPasswordLength {
		return ErrPasswordTooShort
	}
	admin, err := s.GetAdminByUsername(ctx, username)
	if err != nil {
		return err
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.adminRepo.Updates(ctx, admin.ID, map[string]interface{}{
		ColPassword:          string(passwordHash),
		ColPasswordChangedAt: time.Now(),
		ColResetToken:        nil,
		ColResetTokenExpiry:  nil,
		ColLoginOTP:          nil,
		ColLoginOTPExpiry:    nil,
	})
}

func NewAdminService(adminRepo AdminRepository) *AdminService {
	return &AdminService{adminRepo: adminRepo}
}
