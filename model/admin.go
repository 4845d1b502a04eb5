package model

import (
	"time"

	"gorm.io/gorm"
)

// Admin stores the administrator account. The username doubles as the
// login handle and the email address OTP and reset links are delivered to.
type Admin struct {
	ID       uint   `gorm:"primarykey"`
	Username string `gorm:"uniqueIndex;size:256;not null"`
	Password string `gorm:"size:64;not null"` // bcrypt digest, never the plaintext

	// PasswordChangedAt is set whenever the password or the username
	// changes. Session tokens issued before it are rejected.
	PasswordChangedAt *time.Time

	ResetToken       *string `gorm:"size:64;index"`
	ResetTokenExpiry *time.Time

	LoginOTP       *string `gorm:"size:64"` // bcrypt digest of the pending otp code
	LoginOTPExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.ID == 0 {
		a.ID = GenerateID()
	}
	return nil
}
