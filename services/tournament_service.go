package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"battle-manager/config"
	"battle-manager/middleware"
	"battle-manager/models"
	"battle-manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TournamentService struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewTournamentService(db *gorm.DB, cfg *config.Config) *TournamentService {
	return &TournamentService{DB: db, Cfg: cfg}
}

// EnrollUser deducts the entry fee and takes a seat in one transaction.
// Seat and balance checks are compare-and-swap updates, so two concurrent
// enrollments for the last seat cannot both succeed.
func (s *TournamentService) EnrollUser(tournamentID, userID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, "id = ?", tournamentID).Error; err != nil {
			return err
		}

		if models.EffectiveStatus(t.Status, t.StartTime, t.RevealTime, time.Now()) != models.StatusUpcoming {
			return models.ErrEnrollmentClosed
		}

		var enrolled int64
		if err := tx.Model(&models.Enrollment{}).
			Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
			Count(&enrolled).Error; err != nil {
			return err
		}
		if enrolled > 0 {
			return models.ErrAlreadyEnrolled
		}

		// Seat CAS: zero rows affected means the tournament is full.
		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND current_players < max_players", tournamentID).
			UpdateColumn("current_players", gorm.Expr("current_players + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrTournamentFull
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if !user.IsActive {
			return models.ErrUserInactive
		}

		// Points CAS: zero rows affected means insufficient balance; the seat
		// increment above rolls back with us.
		res = tx.Model(&models.User{}).
			Where("id = ? AND points >= ?", userID, t.EntryFee).
			UpdateColumn("points", gorm.Expr("points - ?", t.EntryFee))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrInsufficientPoints
		}

		enr := models.Enrollment{
			ID:           uuid.NewString(),
			TournamentID: tournamentID,
			UserID:       userID,
			PaidPoints:   t.EntryFee,
		}
		if err := tx.Create(&enr).Error; err != nil {
			return err
		}

		// Seed the kill list so the payout screen always sees every player.
		kill := models.KillEntry{
			ID:           uuid.NewString(),
			TournamentID: tournamentID,
			UserID:       userID,
		}
		return tx.Create(&kill).Error
	})
}

// --- Public handlers ---

// ListTournaments returns upcoming and live tournaments with derived status.
func (s *TournamentService) ListTournaments(c *fiber.Ctx) error {
	var tournaments []models.Tournament
	err := s.DB.Where("status IN ?", []models.TournamentStatus{models.StatusUpcoming, models.StatusLive}).
		Order("start_time ASC").Find(&tournaments).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tournaments"})
	}

	now := time.Now()
	for i := range tournaments {
		tournaments[i].Derive(now)
	}
	return c.JSON(tournaments)
}

// ListCompleted returns finished tournaments, newest first.
func (s *TournamentService) ListCompleted(c *fiber.Ctx) error {
	var tournaments []models.Tournament
	err := s.DB.Where("status = ?", models.StatusCompleted).
		Order("start_time DESC").Limit(50).Find(&tournaments).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tournaments"})
	}
	now := time.Now()
	for i := range tournaments {
		tournaments[i].Derive(now)
	}
	return c.JSON(tournaments)
}

// GetTournament returns one tournament by id or slug. Admins additionally
// get enrollments and the kill list preloaded.
func (s *TournamentService) GetTournament(c *fiber.Ctx) error {
	idOrSlug := c.Params("id")

	q := s.DB
	if middleware.IsAdmin(c) {
		q = q.Preload("Enrollments").Preload("Kills")
	}

	// The id column is uuid-typed; comparing it against a slug would fail the
	// cast on postgres, so pick the column by the param's shape.
	if uuid.Validate(idOrSlug) == nil {
		q = q.Where("id = ?", idOrSlug)
	} else {
		q = q.Where("slug = ?", idOrSlug)
	}

	var t models.Tournament
	if err := q.First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	t.Derive(time.Now())
	return c.JSON(t)
}

// Enroll implements POST /api/tournaments/:id/enroll.
func (s *TournamentService) Enroll(c *fiber.Ctx) error {
	err := s.EnrollUser(c.Params("id"), middleware.UserID(c))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	case errors.Is(err, models.ErrEnrollmentClosed),
		errors.Is(err, models.ErrAlreadyEnrolled),
		errors.Is(err, models.ErrTournamentFull):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientPoints):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrUserInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("tournament", c.Params("id")).Msg("❌ Enrollment failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "enrollment failed, try again"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// MyEnrollments lists the caller's enrollments with tournament summaries.
func (s *TournamentService) MyEnrollments(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var enrollments []models.Enrollment
	if err := s.DB.Where("user_id = ?", userID).Order("joined_at DESC").Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load enrollments"})
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.TournamentID)
	}
	var tournaments []models.Tournament
	if len(ids) > 0 {
		if err := s.DB.Where("id IN ?", ids).Find(&tournaments).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tournaments"})
		}
	}
	now := time.Now()
	for i := range tournaments {
		tournaments[i].Derive(now)
	}

	return c.JSON(fiber.Map{"enrollments": enrollments, "tournaments": tournaments})
}

// RoomCredentials reveals the decrypted room id/password to enrolled players
// once the tournament is effectively live.
func (s *TournamentService) RoomCredentials(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	tournamentID := c.Params("id")

	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	}

	var enrolled int64
	if err := s.DB.Model(&models.Enrollment{}).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		Count(&enrolled).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to check enrollment"})
	}
	if enrolled == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only enrolled players can view room credentials"})
	}

	if models.EffectiveStatus(t.Status, t.StartTime, t.RevealTime, time.Now()) != models.StatusLive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": models.ErrRoomNotRevealed.Error()})
	}

	roomID, err := utils.Decrypt(t.RoomID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to decrypt room credentials"})
	}
	roomPassword, err := utils.Decrypt(t.RoomPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to decrypt room credentials"})
	}

	return c.JSON(fiber.Map{"room_id": roomID, "room_password": roomPassword})
}

// --- Admin handlers ---

// CreateTournament accepts a multipart form with an optional banner image.
func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	startTimeStr := c.FormValue("start_time")
	maxPlayersStr := c.FormValue("max_players")

	if name == "" || startTimeStr == "" || maxPlayersStr == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name, start_time and max_players are required"})
	}

	startTime, err := time.Parse(time.RFC3339, startTimeStr)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
	}

	var revealTime *time.Time
	if v := c.FormValue("reveal_time"); v != "" {
		rt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid reveal_time (use RFC3339)"})
		}
		revealTime = &rt
	}

	maxPlayers, err := strconv.Atoi(maxPlayersStr)
	if err != nil || maxPlayers <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "max_players must be a positive integer"})
	}

	entryFee := int64(0)
	if v := c.FormValue("entry_fee"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			entryFee = n
		} else {
			return c.Status(400).JSON(fiber.Map{"error": "entry_fee must be a non-negative integer"})
		}
	}

	pointsPerKill := int64(0)
	if v := c.FormValue("points_per_kill"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			pointsPerKill = n
		} else {
			return c.Status(400).JSON(fiber.Map{"error": "points_per_kill must be a non-negative integer"})
		}
	}

	roomID, err := utils.Encrypt(c.FormValue("room_id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to encrypt room credentials"})
	}
	roomPassword, err := utils.Encrypt(c.FormValue("room_password"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to encrypt room credentials"})
	}

	var bannerURL string
	if banner, err := c.FormFile("banner"); err == nil && banner.Size > 0 {
		ext := filepath.Ext(banner.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "tournaments/banners/" + uuid.NewString() + ext
		url, err := utils.UploadImage(banner, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload banner"})
		}
		bannerURL = url
	}

	t := &models.Tournament{
		ID:            uuid.NewString(),
		Slug:          s.makeSlug(name),
		Name:          name,
		Description:   c.FormValue("description"),
		GameName:      c.FormValue("game_name"),
		BannerURL:     bannerURL,
		EntryFee:      entryFee,
		MaxPlayers:    maxPlayers,
		StartTime:     startTime,
		RevealTime:    revealTime,
		Status:        models.StatusUpcoming,
		PointsPerKill: pointsPerKill,
		RoomID:        roomID,
		RoomPassword:  roomPassword,
	}

	if err := s.DB.Create(t).Error; err != nil {
		log.Error().Err(err).Msg("❌ Failed to create tournament")
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}

	log.Info().Str("id", t.ID).Str("name", t.Name).Msg("✅ Tournament created")
	t.Derive(time.Now())
	return c.Status(201).JSON(t)
}

// UpdateTournament applies partial updates; room credentials are
// re-encrypted when provided.
func (s *TournamentService) UpdateTournament(c *fiber.Ctx) error {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	}

	var req struct {
		Name          *string    `json:"name"`
		Description   *string    `json:"description"`
		GameName      *string    `json:"game_name"`
		EntryFee      *int64     `json:"entry_fee"`
		MaxPlayers    *int       `json:"max_players"`
		StartTime     *time.Time `json:"start_time"`
		RevealTime    *time.Time `json:"reveal_time"`
		PointsPerKill *int64     `json:"points_per_kill"`
		RoomID        *string    `json:"room_id"`
		RoomPassword  *string    `json:"room_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.GameName != nil {
		updates["game_name"] = *req.GameName
	}
	if req.EntryFee != nil {
		if t.CurrentPlayers > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "cannot change entry fee after players enrolled"})
		}
		if *req.EntryFee < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entry_fee must be non-negative"})
		}
		updates["entry_fee"] = *req.EntryFee
	}
	if req.MaxPlayers != nil {
		if *req.MaxPlayers < t.CurrentPlayers {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_players cannot be below current players"})
		}
		updates["max_players"] = *req.MaxPlayers
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
	}
	if req.RevealTime != nil {
		updates["reveal_time"] = *req.RevealTime
	}
	if req.PointsPerKill != nil && *req.PointsPerKill >= 0 {
		updates["points_per_kill"] = *req.PointsPerKill
	}
	if req.RoomID != nil {
		enc, err := utils.Encrypt(*req.RoomID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to encrypt room credentials"})
		}
		updates["room_id"] = enc
	}
	if req.RoomPassword != nil {
		enc, err := utils.Encrypt(*req.RoomPassword)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to encrypt room credentials"})
		}
		updates["room_password"] = enc
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&t).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to update tournament"})
		}
	}
	t.Derive(time.Now())
	return c.JSON(t)
}

// UpdateStatus overrides the stored status. Cancellation goes through
// CancelTournament so refunds are not skipped.
func (s *TournamentService) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status models.TournamentStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	switch req.Status {
	case models.StatusUpcoming, models.StatusLive, models.StatusCompleted:
	case models.StatusCancelled:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "use the cancel endpoint to cancel a tournament"})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}

	res := s.DB.Model(&models.Tournament{}).Where("id = ?", c.Params("id")).
		Update("status", req.Status)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update status"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// CancelTournament refunds every enrolled player and notifies them, all in
// one transaction.
func (s *TournamentService) CancelTournament(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	adminID := middleware.UserID(c)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, "id = ?", tournamentID).Error; err != nil {
			return err
		}
		if t.Status == models.StatusCompleted || t.Status == models.StatusCancelled {
			return models.ErrEnrollmentClosed
		}

		var enrollments []models.Enrollment
		if err := tx.Where("tournament_id = ?", tournamentID).Find(&enrollments).Error; err != nil {
			return err
		}

		now := time.Now()
		for _, e := range enrollments {
			if e.PaidPoints > 0 {
				res := tx.Model(&models.User{}).Where("id = ?", e.UserID).
					UpdateColumn("points", gorm.Expr("points + ?", e.PaidPoints))
				if res.Error != nil {
					return res.Error
				}
				payment := models.Payment{
					ID:           uuid.NewString(),
					UserID:       e.UserID,
					Amount:       e.PaidPoints,
					Type:         models.PaymentTypeRefund,
					Status:       models.PaymentStatusApproved,
					TournamentID: tournamentID,
					Note:         fmt.Sprintf("Entry fee refund: %s cancelled", t.Name),
					ApprovedBy:   adminID,
					ApprovedAt:   &now,
				}
				if err := tx.Create(&payment).Error; err != nil {
					return err
				}
			}
			notif := models.Notification{
				ID:      uuid.NewString(),
				UserID:  e.UserID,
				Type:    models.NotifyTournamentCancelled,
				Title:   "Tournament cancelled",
				Message: notifyPrintf("%s was cancelled. Your entry fee of %d points has been refunded.", t.Name, e.PaidPoints),
			}
			if err := tx.Create(&notif).Error; err != nil {
				return err
			}
		}

		return tx.Model(&t).Update("status", models.StatusCancelled).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	case errors.Is(err, models.ErrEnrollmentClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "tournament is already completed or cancelled"})
	case err != nil:
		log.Error().Err(err).Str("tournament", tournamentID).Msg("❌ Cancellation failed")
		return c.Status(500).JSON(fiber.Map{"error": "cancellation failed"})
	}

	log.Info().Str("tournament", tournamentID).Msg("✅ Tournament cancelled and refunded")
	return c.JSON(fiber.Map{"success": true})
}

// DeleteTournament hard-deletes; only allowed while nobody has enrolled.
func (s *TournamentService) DeleteTournament(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var enrolled int64
	s.DB.Model(&models.Enrollment{}).Where("tournament_id = ?", tournamentID).Count(&enrolled)
	if enrolled > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "cancel instead: tournament has enrolled players"})
	}

	res := s.DB.Delete(&models.Tournament{}, "id = ?", tournamentID)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete tournament"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tournament not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListAll is the admin view over every tournament, any status.
func (s *TournamentService) ListAll(c *fiber.Ctx) error {
	var tournaments []models.Tournament
	if err := s.DB.Order("created_at DESC").Find(&tournaments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load tournaments"})
	}
	now := time.Now()
	for i := range tournaments {
		tournaments[i].Derive(now)
	}
	return c.JSON(tournaments)
}

func (s *TournamentService) makeSlug(name string) string {
	base := slug.Make(name)
	var count int64
	s.DB.Model(&models.Tournament{}).Where("slug = ?", base).Count(&count)
	if count > 0 {
		return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
	}
	return base
}
