package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"battle-manager/middleware"
	"battle-manager/models"
	"battle-manager/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const chatHistoryDefaultLimit = 50

// ChatService backs the global room and the per-user support threads.
// Messages are persisted first and then fanned out through the hub, so a
// reader that reconnects can always recover from history.
type ChatService struct {
	DB  *gorm.DB
	Hub *ChatHub
}

func NewChatService(db *gorm.DB, hub *ChatHub) *ChatService {
	return &ChatService{DB: db, Hub: hub}
}

// SaveAndPublish persists a message and broadcasts it to connected sockets.
func (s *ChatService) SaveAndPublish(channel, senderID, senderName, text, imageURL string, isAdmin bool) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" && imageURL == "" {
		return nil, fmt.Errorf("message must have text or an image")
	}

	msg := models.ChatMessage{
		ID:         uuid.NewString(),
		Channel:    channel,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		ImageURL:   imageURL,
		IsAdmin:    isAdmin,
	}
	if err := s.DB.Create(&msg).Error; err != nil {
		return nil, err
	}

	s.Hub.Publish(msg)
	return &msg, nil
}

// history returns messages for channel, newest-first, paginated with
// ?before=<RFC3339>&limit=.
func (s *ChatService) history(c *fiber.Ctx, channel string) error {
	limit := chatHistoryDefaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	q := s.DB.Where("channel = ?", channel).Order("created_at DESC").Limit(limit)
	if before := c.Query("before"); before != "" {
		ts, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "before must be an RFC3339 timestamp"})
		}
		q = q.Where("created_at < ?", ts)
	}

	var messages []models.ChatMessage
	if err := q.Find(&messages).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load messages"})
	}
	return c.JSON(messages)
}

// GlobalHistory implements GET /api/chat/global/history.
func (s *ChatService) GlobalHistory(c *fiber.Ctx) error {
	return s.history(c, models.ChatChannelGlobal)
}

// SupportHistory implements GET /api/chat/support/history for the caller's
// own thread.
func (s *ChatService) SupportHistory(c *fiber.Ctx) error {
	return s.history(c, models.SupportChannel(middleware.UserID(c)))
}

// AdminSupportHistory implements GET /api/admin/chat/support/:user_id/history.
func (s *ChatService) AdminSupportHistory(c *fiber.Ctx) error {
	return s.history(c, models.SupportChannel(c.Params("user_id")))
}

// Threads implements GET /api/admin/chat/threads: one row per support
// thread, most recently active first.
func (s *ChatService) Threads(c *fiber.Ctx) error {
	type row struct {
		Channel       string
		LastMessageAt time.Time
		MessageCount  int64
	}
	var rows []row
	err := s.DB.Model(&models.ChatMessage{}).
		Select("channel, MAX(created_at) AS last_message_at, COUNT(*) AS message_count").
		Where("channel LIKE ?", "support:%").
		Group("channel").
		Order("last_message_at DESC").
		Scan(&rows).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load threads"})
	}

	threads := make([]models.SupportThread, 0, len(rows))
	for _, r := range rows {
		threads = append(threads, models.SupportThread{
			Channel:       r.Channel,
			UserID:        models.SupportChannelUser(r.Channel),
			LastMessageAt: r.LastMessageAt,
			MessageCount:  r.MessageCount,
		})
	}
	return c.JSON(threads)
}

// UploadChatImage implements POST /api/chat/upload. The returned URL is then
// sent as a regular message over the socket.
func (s *ChatService) UploadChatImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "an image file is required"})
	}

	url, err := utils.UploadImage(file, fmt.Sprintf("chat/%s_%s", uuid.NewString()[:8], file.Filename))
	if err != nil {
		log.Error().Err(err).Msg("❌ Chat image upload failed")
		return c.Status(500).JSON(fiber.Map{"error": "failed to store image"})
	}
	return c.JSON(fiber.Map{"url": url})
}

// --- websocket handlers ---

type inboundChatMessage struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

// GlobalSocket serves /ws/chat/global.
func (s *ChatService) GlobalSocket(c *websocket.Conn) {
	s.runSocket(c, models.ChatChannelGlobal)
}

// SupportSocket serves /ws/chat/support: the caller's own thread.
func (s *ChatService) SupportSocket(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	s.runSocket(c, models.SupportChannel(userID))
}

// AdminSupportSocket serves /ws/chat/support/:user_id for the back office.
func (s *ChatService) AdminSupportSocket(c *websocket.Conn) {
	role, _ := c.Locals("user_role").(string)
	if role != models.RoleAdmin {
		c.Close()
		return
	}
	s.runSocket(c, models.SupportChannel(c.Params("user_id")))
}

// runSocket pumps hub messages for channel out to the connection and reads
// inbound messages from it until either side drops.
func (s *ChatService) runSocket(c *websocket.Conn, channel string) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		c.Close()
		return
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil || !user.IsActive {
		c.Close()
		return
	}

	sub := s.Hub.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range sub {
			if msg.Channel != channel {
				continue
			}
			if err := c.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	for {
		var in inboundChatMessage
		if err := c.ReadJSON(&in); err != nil {
			break
		}
		if _, err := s.SaveAndPublish(channel, user.ID, user.DisplayName, in.Text, in.ImageURL, user.IsAdmin()); err != nil {
			log.Debug().Err(err).Str("channel", channel).Msg("💬 dropped invalid chat message")
		}
	}

	s.Hub.Unsubscribe(sub)
	<-done
	c.Close()
}
