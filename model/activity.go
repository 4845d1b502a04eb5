package model

import "time"

// AdminActivity is an append-only audit record. Rows are created by the
// audit recorder only and removed by the retention cleanup, never by
// application logic.
type AdminActivity struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement"`
	AdminID   uint              `gorm:"index;not null"`
	Action    string            `gorm:"size:64;not null;index"` // LOGIN_SUCCESS, OTP_VERIFICATION_FAILURE...
	Metadata  map[string]string `gorm:"serializer:json"`
	IPAddress string            `gorm:"size:45"` // IPv4/IPv6
	UserAgent string            `gorm:"size:512"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index"`
}

func (AdminActivity) TableName() string {
	return "admin_activity"
}
