package services

import (
	"errors"
	"fmt"
	"time"

	"battle-manager/middleware"
	"battle-manager/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PayoutService runs the kill-list prize flow. Crediting a player means
// three writes — balance increment, approved payment row, kill-entry stamp —
// and all three happen in one transaction, or none do.
type PayoutService struct {
	DB *gorm.DB
}

func NewPayoutService(db *gorm.DB) *PayoutService {
	return &PayoutService{DB: db}
}

type KillUpdate struct {
	UserID       string `json:"user_id"`
	Kills        int    `json:"kills"`
	CustomAmount int64  `json:"custom_amount"`
}

// SetKillCounts bulk-updates kill counts. Rejected once the tournament has
// been paid out, and per-player once that player has been credited.
func (s *PayoutService) SetKillCounts(tournamentID string, updates []KillUpdate) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, "id = ?", tournamentID).Error; err != nil {
			return err
		}
		if t.PaidAt != nil {
			return models.ErrKillsLocked
		}

		for _, u := range updates {
			if u.Kills < 0 || u.CustomAmount < 0 {
				return fmt.Errorf("kills and custom_amount must be non-negative for user %s", u.UserID)
			}
			var k models.KillEntry
			err := tx.Where("tournament_id = ? AND user_id = ?", tournamentID, u.UserID).First(&k).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s is not on this kill list", u.UserID)
			}
			if err != nil {
				return err
			}
			if k.CreditedAt != nil {
				return models.ErrAlreadyCredited
			}
			if err := tx.Model(&k).Updates(map[string]interface{}{
				"kills":         u.Kills,
				"custom_amount": u.CustomAmount,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreditOne pays a single player. custom > 0 overrides the kill calculation
// and is persisted on the kill entry.
func (s *PayoutService) CreditOne(tournamentID, userID string, custom int64, adminID string) (int64, error) {
	var credited int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, "id = ?", tournamentID).Error; err != nil {
			return err
		}
		if t.PaidAt != nil {
			return models.ErrAlreadyPaid
		}

		var k models.KillEntry
		if err := tx.Where("tournament_id = ? AND user_id = ?", tournamentID, userID).First(&k).Error; err != nil {
			return err
		}
		if k.CreditedAt != nil {
			return models.ErrAlreadyCredited
		}
		if custom > 0 {
			k.CustomAmount = custom
		}

		amount, err := creditPlayer(tx, &t, &k, adminID, time.Now())
		if err != nil {
			return err
		}
		credited = amount

		return tx.Model(&models.Tournament{}).Where("id = ?", t.ID).
			UpdateColumn("total_paid", gorm.Expr("total_paid + ?", amount)).Error
	})
	return credited, err
}

// CreditAll pays every uncredited player, skipping those whose computed
// credit is zero, then locks the kill list by stamping paid_at. Partial
// failure rolls the whole batch back.
func (s *PayoutService) CreditAll(tournamentID string, pointsPerKill *int64, adminID string) (int, int64, error) {
	var paidPlayers int
	var totalPaid int64

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, "id = ?", tournamentID).Error; err != nil {
			return err
		}
		if t.PaidAt != nil {
			return models.ErrAlreadyPaid
		}
		if pointsPerKill != nil {
			if *pointsPerKill < 0 {
				return fmt.Errorf("points_per_kill must be non-negative")
			}
			t.PointsPerKill = *pointsPerKill
		}

		var kills []models.KillEntry
		if err := tx.Where("tournament_id = ? AND credited_at IS NULL", tournamentID).
			Find(&kills).Error; err != nil {
			return err
		}

		now := time.Now()
		for i := range kills {
			k := &kills[i]
			if models.ComputeCredit(k.Kills, t.PointsPerKill, k.CustomAmount) <= 0 {
				continue // zero kills, no override: skipped, never debited
			}
			amount, err := creditPlayer(tx, &t, k, adminID, now)
			if err != nil {
				return err
			}
			paidPlayers++
			totalPaid += amount
		}

		return tx.Model(&models.Tournament{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"points_per_kill": t.PointsPerKill,
			"total_paid":      gorm.Expr("total_paid + ?", totalPaid),
			"paid_at":         now,
			"status":          models.StatusCompleted,
		}).Error
	})
	return paidPlayers, totalPaid, err
}

// creditPlayer performs the three writes for one player inside tx.
func creditPlayer(tx *gorm.DB, t *models.Tournament, k *models.KillEntry, adminID string, now time.Time) (int64, error) {
	amount := models.ComputeCredit(k.Kills, t.PointsPerKill, k.CustomAmount)
	if amount <= 0 {
		return 0, models.ErrNothingToCredit
	}

	res := tx.Model(&models.User{}).Where("id = ?", k.UserID).
		UpdateColumn("points", gorm.Expr("points + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("user %s not found", k.UserID)
	}

	payment := models.Payment{
		ID:           uuid.NewString(),
		UserID:       k.UserID,
		Amount:       amount,
		Type:         models.PaymentTypeWinning,
		Status:       models.PaymentStatusApproved,
		TournamentID: t.ID,
		Note:         fmt.Sprintf("%d kills x %d points", k.Kills, t.PointsPerKill),
		ApprovedBy:   adminID,
		ApprovedAt:   &now,
	}
	if k.CustomAmount > 0 {
		payment.Note = "custom prize amount"
	}
	if err := tx.Create(&payment).Error; err != nil {
		return 0, err
	}

	if err := tx.Model(k).Updates(map[string]interface{}{
		"custom_amount":   k.CustomAmount,
		"points_credited": amount,
		"credited_at":     now,
	}).Error; err != nil {
		return 0, err
	}

	notif := models.Notification{
		ID:      uuid.NewString(),
		UserID:  k.UserID,
		Type:    models.NotifyTournamentWinning,
		Title:   "Prize credited",
		Message: notifyPrintf("You won %d points in %s. Congratulations!", amount, t.Name),
	}
	return amount, tx.Create(&notif).Error
}

// --- HTTP handlers ---

// GetKillList returns the kill list with enrolled player identities.
func (s *PayoutService) GetKillList(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	}

	var kills []models.KillEntry
	if err := s.DB.Where("tournament_id = ?", tournamentID).Find(&kills).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load kill list"})
	}

	ids := make([]string, 0, len(kills))
	for _, k := range kills {
		ids = append(ids, k.UserID)
	}
	var users []models.User
	if len(ids) > 0 {
		s.DB.Where("id IN ?", ids).Find(&users)
	}

	return c.JSON(fiber.Map{
		"tournament": t,
		"kills":      kills,
		"players":    users,
		"locked":     t.PaidAt != nil,
	})
}

// SetKills implements PUT /api/admin/tournaments/:id/kills.
func (s *PayoutService) SetKills(c *fiber.Ctx) error {
	var req struct {
		Kills []KillUpdate `json:"kills"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	err := s.SetKillCounts(c.Params("id"), req.Kills)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	case errors.Is(err, models.ErrKillsLocked), errors.Is(err, models.ErrAlreadyCredited):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

// CreditPlayer implements POST /api/admin/tournaments/:id/payout/:user_id.
func (s *PayoutService) CreditPlayer(c *fiber.Ctx) error {
	var req struct {
		CustomAmount int64 `json:"custom_amount"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if req.CustomAmount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "custom_amount must be non-negative"})
	}

	amount, err := s.CreditOne(c.Params("id"), c.Params("user_id"), req.CustomAmount, middleware.UserID(c))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament or player not found"})
	case errors.Is(err, models.ErrAlreadyCredited), errors.Is(err, models.ErrAlreadyPaid):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrNothingToCredit):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("tournament", c.Params("id")).Str("user", c.Params("user_id")).Msg("❌ Credit failed")
		return c.Status(500).JSON(fiber.Map{"error": "credit failed"})
	}

	log.Info().Str("user", c.Params("user_id")).Int64("amount", amount).Msg("✅ Player credited")
	return c.JSON(fiber.Map{"success": true, "credited": amount})
}

// CreditAllPlayers implements POST /api/admin/tournaments/:id/payout.
func (s *PayoutService) CreditAllPlayers(c *fiber.Ctx) error {
	var req struct {
		PointsPerKill *int64 `json:"points_per_kill"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	players, total, err := s.CreditAll(c.Params("id"), req.PointsPerKill, middleware.UserID(c))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	case errors.Is(err, models.ErrAlreadyPaid):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("tournament", c.Params("id")).Msg("❌ Payout failed, rolled back")
		return c.Status(500).JSON(fiber.Map{"error": "payout failed, no player was credited"})
	}

	log.Info().Str("tournament", c.Params("id")).Int("players", players).Int64("total", total).Msg("✅ Payout completed")
	return c.JSON(fiber.Map{"success": true, "players_credited": players, "total_paid": total})
}
