package workers

import (
	"fmt"
	"testing"
	"time"

	"battle-manager/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ChatMessage{}))
	return db
}

func seedMessage(t *testing.T, db *gorm.DB, channel string, age time.Duration) {
	t.Helper()
	msg := models.ChatMessage{
		ID:       uuid.NewString(),
		Channel:  channel,
		SenderID: "u1",
		Text:     "hi",
	}
	require.NoError(t, db.Create(&msg).Error)
	// autoCreateTime stamps now; backdate explicitly.
	require.NoError(t, db.Model(&msg).UpdateColumn("created_at", time.Now().Add(-age)).Error)
}

func countMessages(t *testing.T, db *gorm.DB, channel string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ChatMessage{}).Where("channel = ?", channel).Count(&n).Error)
	return n
}

func TestSweep(t *testing.T) {
	t.Run("ages out old global messages", func(t *testing.T) {
		db := openTestDB(t)
		w := NewChatRetentionWorker(db, 24*time.Hour, 100)

		seedMessage(t, db, models.ChatChannelGlobal, 48*time.Hour)
		seedMessage(t, db, models.ChatChannelGlobal, time.Hour)

		require.NoError(t, w.Sweep())
		assert.Equal(t, int64(1), countMessages(t, db, models.ChatChannelGlobal))
	})

	t.Run("caps the global room at keep messages", func(t *testing.T) {
		db := openTestDB(t)
		w := NewChatRetentionWorker(db, 24*time.Hour, 5)

		for i := 0; i < 8; i++ {
			seedMessage(t, db, models.ChatChannelGlobal, time.Duration(i)*time.Minute)
		}

		require.NoError(t, w.Sweep())
		assert.Equal(t, int64(5), countMessages(t, db, models.ChatChannelGlobal))
	})

	t.Run("support threads are never pruned", func(t *testing.T) {
		db := openTestDB(t)
		w := NewChatRetentionWorker(db, time.Hour, 1)

		support := models.SupportChannel("u1")
		seedMessage(t, db, support, 72*time.Hour)
		seedMessage(t, db, support, 48*time.Hour)
		seedMessage(t, db, models.ChatChannelGlobal, 72*time.Hour)

		require.NoError(t, w.Sweep())
		assert.Equal(t, int64(2), countMessages(t, db, support))
		assert.Equal(t, int64(0), countMessages(t, db, models.ChatChannelGlobal))
	})
}
