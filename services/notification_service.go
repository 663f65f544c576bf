package services

import (
	"strings"

	"battle-manager/middleware"
	"battle-manager/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// notifyPrinter formats point amounts with thousands separators in
// notification text (12,500 instead of 12500).
var notifyPrinter = message.NewPrinter(language.English)

func notifyPrintf(format string, args ...interface{}) string {
	return notifyPrinter.Sprintf(format, args...)
}

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// List implements GET /api/notifications?unread=true.
func (s *NotificationService) List(c *fiber.Ctx) error {
	q := s.DB.Where("user_id = ?", middleware.UserID(c)).Order("created_at DESC").Limit(100)
	if c.Query("unread") == "true" {
		q = q.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := q.Find(&notifications).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load notifications"})
	}

	var unread int64
	s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", middleware.UserID(c), false).Count(&unread)

	return c.JSON(fiber.Map{"notifications": notifications, "unread_count": unread})
}

// MarkRead implements POST /api/notifications/:id/read. Scoped to the
// caller so one user cannot touch another's notifications.
func (s *NotificationService) MarkRead(c *fiber.Ctx) error {
	res := s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Params("id"), middleware.UserID(c)).
		Update("read", true)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update notification"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "notification not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead implements POST /api/notifications/read-all.
func (s *NotificationService) MarkAllRead(c *fiber.Ctx) error {
	if err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", middleware.UserID(c), false).
		Update("read", true).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update notifications"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Broadcast implements POST /api/admin/notifications/broadcast: one
// announcement row per active user.
func (s *NotificationService) Broadcast(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	var created int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.User{}).
			Where("is_active = ? AND role = ?", true, models.RoleUser).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		batch := make([]models.Notification, 0, len(ids))
		for _, id := range ids {
			batch = append(batch, models.Notification{
				ID:      uuid.NewString(),
				UserID:  id,
				Type:    models.NotifyAnnouncement,
				Title:   strings.TrimSpace(req.Title),
				Message: strings.TrimSpace(req.Message),
			})
		}
		if len(batch) == 0 {
			return nil
		}
		created = int64(len(batch))
		return tx.CreateInBatches(batch, 200).Error
	})
	if err != nil {
		log.Error().Err(err).Msg("❌ Broadcast failed")
		return c.Status(500).JSON(fiber.Map{"error": "broadcast failed"})
	}

	log.Info().Int64("recipients", created).Msg("📣 Announcement broadcast")
	return c.JSON(fiber.Map{"success": true, "recipients": created})
}
