package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is created on first successful OTP verification and never hard-deleted.
// Points is the in-app currency balance; every mutation of it writes a Payment
// audit row in the same transaction.
type User struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	Mobile        string `gorm:"index" json:"mobile,omitempty"`
	DisplayName   string `json:"display_name"`
	GameAccountID string `json:"game_account_id"` // in-game id shown on kill lists
	Points        int64  `gorm:"not null;default:0" json:"points"`
	Role          string `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	PasswordHash  string `json:"-"` // set only for the admin account
	IsActive      bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
