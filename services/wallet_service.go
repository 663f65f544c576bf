package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"battle-manager/middleware"
	"battle-manager/models"
	"battle-manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// WalletService handles the points wallet: top-up requests with payment
// proof, withdrawal requests, and the admin review queue that settles both.
type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// GetWallet implements GET /api/wallet: current balance plus history.
func (s *WalletService) GetWallet(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}

	var payments []models.Payment
	if err := s.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").Limit(100).Find(&payments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load payment history"})
	}

	return c.JSON(fiber.Map{"points": user.Points, "payments": payments})
}

// AddMoney implements POST /api/wallet/add-money (multipart). The request
// sits pending until an admin verifies the transfer proof; no points move
// here.
func (s *WalletService) AddMoney(c *fiber.Ctx) error {
	amount, err := strconv.ParseInt(c.FormValue("amount"), 10, 64)
	if err != nil || amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be a positive number"})
	}

	proof, err := c.FormFile("proof")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment proof screenshot is required"})
	}

	proofURL, err := utils.UploadImage(proof, fmt.Sprintf("payments/%s_%s", uuid.NewString()[:8], proof.Filename))
	if err != nil {
		log.Error().Err(err).Msg("❌ Proof upload failed")
		return c.Status(500).JSON(fiber.Map{"error": "failed to store payment proof"})
	}

	payment := models.Payment{
		ID:       uuid.NewString(),
		UserID:   middleware.UserID(c),
		Amount:   amount,
		Type:     models.PaymentTypeAddMoney,
		Status:   models.PaymentStatusPending,
		ProofURL: proofURL,
		Note:     strings.TrimSpace(c.FormValue("note")),
	}
	if err := s.DB.Create(&payment).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to submit request"})
	}

	log.Info().Str("user", payment.UserID).Int64("amount", amount).Msg("💰 Add-money request submitted")
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// Withdraw implements POST /api/wallet/withdraw. Balance is checked here for
// a fast answer but only deducted at approval time, atomically.
func (s *WalletService) Withdraw(c *fiber.Ctx) error {
	var req struct {
		Amount        int64  `json:"amount"`
		UPIID         string `json:"upi_id"`
		BankAccount   string `json:"bank_account"`
		BankIFSC      string `json:"bank_ifsc"`
		AccountHolder string `json:"account_holder"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be a positive number"})
	}
	if strings.TrimSpace(req.UPIID) == "" && strings.TrimSpace(req.BankAccount) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a UPI id or bank account is required"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	if user.Points < req.Amount {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": models.ErrInsufficientPoints.Error()})
	}

	payment := models.Payment{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Amount:        req.Amount,
		Type:          models.PaymentTypeWithdrawal,
		Status:        models.PaymentStatusPending,
		UPIID:         strings.TrimSpace(req.UPIID),
		BankAccount:   strings.TrimSpace(req.BankAccount),
		BankIFSC:      strings.TrimSpace(req.BankIFSC),
		AccountHolder: strings.TrimSpace(req.AccountHolder),
	}
	if err := s.DB.Create(&payment).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to submit request"})
	}

	log.Info().Str("user", user.ID).Int64("amount", req.Amount).Msg("🏧 Withdrawal request submitted")
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// --- admin review queue ---

// ListPayments implements GET /api/admin/payments?status=pending&type=add_money.
func (s *WalletService) ListPayments(c *fiber.Ctx) error {
	q := s.DB.Order("created_at DESC").Limit(200)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if typ := c.Query("type"); typ != "" {
		q = q.Where("type = ?", typ)
	}

	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load payments"})
	}
	return c.JSON(payments)
}

// Approve settles a pending payment. add_money credits the balance,
// withdrawal deducts it — the balance is re-checked inside the transaction
// since it may have dropped since the request was made.
func (s *WalletService) Approve(paymentID, adminID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.First(&p, "id = ?", paymentID).Error; err != nil {
			return err
		}
		if p.Status != models.PaymentStatusPending {
			return fmt.Errorf("payment is already %s", p.Status)
		}

		switch p.Type {
		case models.PaymentTypeAddMoney:
			res := tx.Model(&models.User{}).Where("id = ? AND is_active = ?", p.UserID, true).
				UpdateColumn("points", gorm.Expr("points + ?", p.Amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.ErrUserInactive
			}
		case models.PaymentTypeWithdrawal:
			res := tx.Model(&models.User{}).Where("id = ? AND points >= ?", p.UserID, p.Amount).
				UpdateColumn("points", gorm.Expr("points - ?", p.Amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.ErrInsufficientPoints
			}
		default:
			return fmt.Errorf("payment type %s is not reviewable", p.Type)
		}

		now := time.Now()
		if err := tx.Model(&p).Updates(map[string]interface{}{
			"status":      models.PaymentStatusApproved,
			"approved_by": adminID,
			"approved_at": now,
		}).Error; err != nil {
			return err
		}

		verb := "added to"
		if p.Type == models.PaymentTypeWithdrawal {
			verb = "withdrawn from"
		}
		notif := models.Notification{
			ID:      uuid.NewString(),
			UserID:  p.UserID,
			Type:    models.NotifyPaymentApproved,
			Title:   "Payment approved",
			Message: notifyPrintf("%d points were %s your wallet.", p.Amount, verb),
		}
		return tx.Create(&notif).Error
	})
}

// ApprovePayment implements POST /api/admin/payments/:id/approve.
func (s *WalletService) ApprovePayment(c *fiber.Ctx) error {
	err := s.Approve(c.Params("id"), middleware.UserID(c))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "payment not found"})
	case errors.Is(err, models.ErrInsufficientPoints), errors.Is(err, models.ErrUserInactive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("payment", c.Params("id")).Msg("❌ Approval failed")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	log.Info().Str("payment", c.Params("id")).Msg("✅ Payment approved")
	return c.JSON(fiber.Map{"success": true})
}

// RejectPayment implements POST /api/admin/payments/:id/reject. No points
// move; pending requests never held a balance.
func (s *WalletService) RejectPayment(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return err
		}
		if p.Status != models.PaymentStatusPending {
			return fmt.Errorf("payment is already %s", p.Status)
		}

		now := time.Now()
		if err := tx.Model(&p).Updates(map[string]interface{}{
			"status":      models.PaymentStatusRejected,
			"approved_by": middleware.UserID(c),
			"approved_at": now,
			"note":        strings.TrimSpace(req.Reason),
		}).Error; err != nil {
			return err
		}

		msg := notifyPrintf("Your %s request for %d points was rejected.", p.Type, p.Amount)
		if req.Reason != "" {
			msg += " Reason: " + strings.TrimSpace(req.Reason)
		}
		notif := models.Notification{
			ID:      uuid.NewString(),
			UserID:  p.UserID,
			Type:    models.NotifyPaymentRejected,
			Title:   "Payment rejected",
			Message: msg,
		}
		return tx.Create(&notif).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "payment not found"})
	case err != nil:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

// AdjustPoints implements POST /api/admin/users/:id/adjust: a signed manual
// correction with an audit row. Negative adjustments cannot push a balance
// below zero.
func (s *WalletService) AdjustPoints(c *fiber.Ctx) error {
	var req struct {
		Amount int64  `json:"amount"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Amount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be non-zero"})
	}
	if strings.TrimSpace(req.Note) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a note explaining the adjustment is required"})
	}

	userID := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.User{}).Where("id = ?", userID)
		if req.Amount < 0 {
			q = q.Where("points >= ?", -req.Amount)
		}
		res := q.UpdateColumn("points", gorm.Expr("points + ?", req.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrInsufficientPoints
		}

		now := time.Now()
		payment := models.Payment{
			ID:         uuid.NewString(),
			UserID:     userID,
			Amount:     req.Amount,
			Type:       models.PaymentTypeAdjustment,
			Status:     models.PaymentStatusApproved,
			Note:       strings.TrimSpace(req.Note),
			ApprovedBy: middleware.UserID(c),
			ApprovedAt: &now,
		}
		return tx.Create(&payment).Error
	})
	switch {
	case errors.Is(err, models.ErrInsufficientPoints):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "adjustment would make the balance negative, or user not found"})
	case err != nil:
		log.Error().Err(err).Str("user", userID).Msg("❌ Adjustment failed")
		return c.Status(500).JSON(fiber.Map{"error": "adjustment failed"})
	}

	log.Info().Str("user", userID).Int64("amount", req.Amount).Msg("🔧 Points adjusted")
	return c.JSON(fiber.Map{"success": true})
}
