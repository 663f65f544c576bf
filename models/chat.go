package models

import (
	"strings"
	"time"
)

const ChatChannelGlobal = "global"

// SupportChannel names the 1:1 support thread for a user.
func SupportChannel(userID string) string {
	return "support:" + userID
}

// SupportChannelUser extracts the user id from a support channel name,
// returning "" for non-support channels.
func SupportChannelUser(channel string) string {
	if !IsSupportChannel(channel) {
		return ""
	}
	return strings.TrimPrefix(channel, "support:")
}

func IsSupportChannel(channel string) bool {
	return strings.HasPrefix(channel, "support:")
}

// ChatMessage is either a text or an image message in the global room or a
// support thread.
type ChatMessage struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	Channel    string    `gorm:"not null;index:idx_chat_channel_created" json:"channel"`
	SenderID   string    `gorm:"not null;index" json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	IsAdmin    bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_chat_channel_created" json:"created_at"`
}

// SupportThread is the derived per-user support chat summary shown to admins.
type SupportThread struct {
	Channel       string    `json:"channel"`
	UserID        string    `json:"user_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int64     `json:"message_count"`
}
