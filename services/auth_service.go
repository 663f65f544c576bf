package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"battle-manager/config"
	"battle-manager/middleware"
	"battle-manager/models"
	"battle-manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Mailer *utils.Mailer
	Cfg    *config.Config
}

func NewAuthService(db *gorm.DB, rdb *redis.Client, mailer *utils.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{DB: db, Redis: rdb, Mailer: mailer, Cfg: cfg}
}

func otpCodeKey(email string) string     { return "otp:code:" + email }
func otpAttemptsKey(email string) string { return "otp:attempts:" + email }
func otpCooldownKey(email string) string { return "otp:cooldown:" + email }

// SeedAdmin upserts the back-office account from env config so the admin
// login path works on a fresh database.
func (s *AuthService) SeedAdmin() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.Cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var admin models.User
	err = s.DB.Where("email = ?", strings.ToLower(s.Cfg.Admin.Email)).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		admin = models.User{
			ID:           uuid.NewString(),
			Email:        strings.ToLower(s.Cfg.Admin.Email),
			DisplayName:  "Admin",
			Role:         models.RoleAdmin,
			PasswordHash: string(hash),
			IsActive:     true,
		}
		return s.DB.Create(&admin).Error
	}
	if err != nil {
		return err
	}

	return s.DB.Model(&admin).Updates(map[string]interface{}{
		"role":          models.RoleAdmin,
		"password_hash": string(hash),
	}).Error
}

// IssueOTP generates a 6-digit code valid for the configured window. A
// cooldown key throttles repeated sends for the same address.
func (s *AuthService) IssueOTP(ctx context.Context, email string) (string, error) {
	ok, err := s.Redis.SetNX(ctx, otpCooldownKey(email), "1", s.Cfg.OTP.Cooldown).Result()
	if err != nil {
		return "", fmt.Errorf("failed to set cooldown: %w", err)
	}
	if !ok {
		return "", models.ErrOTPCooldown
	}

	code, err := generateOTP()
	if err != nil {
		return "", err
	}

	pipe := s.Redis.TxPipeline()
	pipe.Set(ctx, otpCodeKey(email), code, s.Cfg.OTP.TTL)
	pipe.Del(ctx, otpAttemptsKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}
	return code, nil
}

// CheckOTP verifies a submitted code. It returns the remaining attempts for
// the current issuance window together with ErrOTPInvalid; after the limit
// the code is destroyed and a fresh one is required.
func (s *AuthService) CheckOTP(ctx context.Context, email, code string) (int, error) {
	stored, err := s.Redis.Get(ctx, otpCodeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, models.ErrOTPExpired
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read otp: %w", err)
	}

	if stored != code {
		attempts, err := s.Redis.Incr(ctx, otpAttemptsKey(email)).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to count attempt: %w", err)
		}
		if attempts == 1 {
			s.Redis.Expire(ctx, otpAttemptsKey(email), s.Cfg.OTP.TTL)
		}
		remaining := s.Cfg.OTP.MaxAttempts - int(attempts)
		if remaining <= 0 {
			s.Redis.Del(ctx, otpCodeKey(email), otpAttemptsKey(email))
			return 0, models.ErrOTPLocked
		}
		return remaining, models.ErrOTPInvalid
	}

	s.Redis.Del(ctx, otpCodeKey(email), otpAttemptsKey(email), otpCooldownKey(email))
	return 0, nil
}

// LoginOrCreate resumes an existing account or creates one on first
// verification (signup and login share the OTP path).
func (s *AuthService) LoginOrCreate(email string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: strings.Split(email, "@")[0],
			Role:        models.RoleUser,
			IsActive:    true,
		}
		if err := s.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		log.Info().Str("email", email).Msg("✅ New user registered")
		return &user, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrUserInactive
	}
	return &user, nil
}

// --- HTTP handlers ---

// SendOTP implements POST /api/send-otp.
func (s *AuthService) SendOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid request body"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "a valid email is required"})
	}

	code, err := s.IssueOTP(c.Context(), email)
	if errors.Is(err, models.ErrOTPCooldown) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to issue OTP")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "failed to send code, try again"})
	}

	if err := s.Mailer.SendOTP(c.Context(), email, code, s.Cfg.OTP.TTL); err != nil {
		log.Error().Err(err).Str("email", email).Msg("❌ Failed to deliver OTP email")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "failed to send code, try again"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// VerifyOTP implements POST /api/verify-otp and issues the session token.
func (s *AuthService) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid request body"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	remaining, err := s.CheckOTP(c.Context(), email, strings.TrimSpace(req.OTP))
	switch {
	case errors.Is(err, models.ErrOTPInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false, "remainingAttempts": remaining, "error": err.Error(),
		})
	case errors.Is(err, models.ErrOTPLocked), errors.Is(err, models.ErrOTPExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false, "remainingAttempts": 0, "error": err.Error(),
		})
	case err != nil:
		log.Error().Err(err).Msg("❌ OTP verification failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "verification failed, try again"})
	}

	user, err := s.LoginOrCreate(email)
	if errors.Is(err, models.ErrUserInactive) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to load user after OTP")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "login failed, try again"})
	}

	token, err := utils.SignSession(s.Cfg.JWTSecret, user.ID, user.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "login failed, try again"})
	}

	return c.JSON(fiber.Map{"success": true, "token": token, "user": user})
}

// AdminLogin implements POST /api/admin/login with email + password.
func (s *AuthService) AdminLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	var admin models.User
	err := s.DB.Where("email = ? AND role = ?", strings.ToLower(strings.TrimSpace(req.Email)), models.RoleAdmin).
		First(&admin).Error
	if err != nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token, err := utils.SignSession(s.Cfg.JWTSecret, admin.ID, models.RoleAdmin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
	}

	log.Info().Str("email", admin.Email).Msg("🔐 Admin logged in")
	return c.JSON(fiber.Map{"success": true, "token": token, "user": admin})
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(user)
}

// UpdateMe updates display name, game account id and mobile.
func (s *AuthService) UpdateMe(c *fiber.Ctx) error {
	var req struct {
		DisplayName   *string `json:"display_name"`
		GameAccountID *string `json:"game_account_id"`
		Mobile        *string `json:"mobile"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) != "" {
		updates["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.GameAccountID != nil {
		updates["game_account_id"] = strings.TrimSpace(*req.GameAccountID)
	}
	if req.Mobile != nil {
		updates["mobile"] = strings.TrimSpace(*req.Mobile)
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&user).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update profile"})
		}
	}
	return c.JSON(user)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
