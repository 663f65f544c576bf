package services

import (
	"fmt"
	"testing"
	"time"

	"battle-manager/config"
	"battle-manager/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test its own in-memory sqlite database with the full
// schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.Enrollment{},
		&models.KillEntry{},
		&models.Payment{},
		&models.ChatMessage{},
		&models.Notification{},
	))
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.OTP.TTL = 5 * time.Minute
	cfg.OTP.MaxAttempts = 3
	cfg.OTP.Cooldown = time.Minute
	cfg.JWTSecret = "test-secret"
	return cfg
}

func createUser(t *testing.T, db *gorm.DB, points int64) *models.User {
	t.Helper()
	u := &models.User{
		ID:          uuid.NewString(),
		Email:       fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		DisplayName: "player",
		Role:        models.RoleUser,
		Points:      points,
		IsActive:    true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTournament(t *testing.T, db *gorm.DB, fee int64, maxPlayers int, start time.Time) *models.Tournament {
	t.Helper()
	tr := &models.Tournament{
		ID:            uuid.NewString(),
		Slug:          uuid.NewString(),
		Name:          "Friday Night Cup",
		EntryFee:      fee,
		MaxPlayers:    maxPlayers,
		StartTime:     start,
		Status:        models.StatusUpcoming,
		PointsPerKill: 10,
	}
	require.NoError(t, db.Create(tr).Error)
	return tr
}

func enroll(t *testing.T, svc *TournamentService, tournamentID, userID string) {
	t.Helper()
	require.NoError(t, svc.EnrollUser(tournamentID, userID))
}
