package models

import (
	"time"
)

type NotificationType string

const (
	NotifyPaymentApproved     NotificationType = "payment_approved"
	NotifyPaymentRejected     NotificationType = "payment_rejected"
	NotifyTournamentWinning   NotificationType = "tournament_winning"
	NotifyTournamentCancelled NotificationType = "tournament_cancelled"
	NotifyAnnouncement        NotificationType = "announcement"
)

type Notification struct {
	ID      string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string           `gorm:"not null;index" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `json:"message"`
	Read    bool             `gorm:"not null;default:false;index" json:"read"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
