package services

import (
	"strings"

	"battle-manager/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UserService is the admin back-office view over accounts.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// ListUsers implements GET /api/admin/users?search=&active=.
func (s *UserService) ListUsers(c *fiber.Ctx) error {
	q := s.DB.Model(&models.User{}).Where("role = ?", models.RoleUser).Order("created_at DESC")

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where(
			"LOWER(email) LIKE ? OR LOWER(display_name) LIKE ? OR LOWER(game_account_id) LIKE ?",
			like, like, like,
		)
	}
	if active := c.Query("active"); active != "" {
		q = q.Where("is_active = ?", active == "true")
	}

	var users []models.User
	if err := q.Limit(200).Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load users"})
	}
	return c.JSON(users)
}

// GetUserDetail implements GET /api/admin/users/:id with wallet history and
// enrollments.
func (s *UserService) GetUserDetail(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}

	var payments []models.Payment
	if err := s.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").Limit(100).Find(&payments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load payment history"})
	}

	var enrollments []models.Enrollment
	if err := s.DB.Where("user_id = ?", user.ID).
		Order("joined_at DESC").Limit(100).Find(&enrollments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load enrollments"})
	}

	return c.JSON(fiber.Map{
		"user":        user,
		"payments":    payments,
		"enrollments": enrollments,
	})
}

// ToggleActive implements POST /api/admin/users/:id/toggle-active. A
// deactivated account keeps its balance but cannot log in, enroll, or be
// credited.
func (s *UserService) ToggleActive(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	if user.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin accounts cannot be deactivated"})
	}

	if err := s.DB.Model(&user).Update("is_active", !user.IsActive).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update user"})
	}

	log.Info().Str("user", user.ID).Bool("active", user.IsActive).Msg("👤 User status toggled")
	return c.JSON(fiber.Map{"success": true, "is_active": user.IsActive})
}
