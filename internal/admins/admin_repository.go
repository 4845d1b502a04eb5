package admins

import (
	"context"
	"time"

	"github.com/duchm/foliogate/model"
	"gorm.io/gorm"
)

// Column names used in partial updates.
const (
	ColPassword          = "password"
	ColPasswordChangedAt = "password_changed_at"
	ColUsername          = "username"
	ColResetToken        = "reset_token"
	ColResetTokenExpiry  = "reset_token_expiry"
	ColLoginOTP          = "login_otp"
	ColLoginOTPExpiry    = "login_otp_expiry"
)

type AdminRepository interface {
	FirstByID(ctx context.Context, id uint) (*model.Admin, error)
	FirstByUsername(ctx context.Context, username string) (*model.Admin, error)
	FirstByResetToken(ctx context.Context, token string, now time.Time) (*model.Admin, error)
	ExistsOther(ctx context.Context, username string, excludeID uint) (bool, error)
	Create(ctx context.Context, admin *model.Admin) error
	Updates(ctx context.Context, id uint, columns map[string]interface{}) error
}

type adminRepository struct {
	db *gorm.DB
}

func (r *adminRepository) FirstByID(ctx context.Context, id uint) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FirstByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).First(&admin, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FirstByResetToken(ctx context.Context, token string, now time.Time) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.WithContext(ctx).
		First(&admin, "reset_token = ? AND reset_token_expiry > ?", token, now).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) ExistsOther(ctx context.Context, username string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Admin{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *adminRepository) Updates(ctx context.Context, id uint, columns map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Admin{}).
		Where("id = ?", id).
		Updates(columns).Error
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db}
}
