package workers

import (
	"context"
	"time"

	"battle-manager/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ChatRetentionWorker prunes the global room so it never grows without
// bound. Two rules, applied on every sweep: drop messages older than MaxAge,
// then drop anything beyond the newest Keep messages. Support threads are
// never pruned since they are the payment dispute trail.
type ChatRetentionWorker struct {
	DB     *gorm.DB
	MaxAge time.Duration
	Keep   int
}

func NewChatRetentionWorker(db *gorm.DB, maxAge time.Duration, keep int) *ChatRetentionWorker {
	return &ChatRetentionWorker{DB: db, MaxAge: maxAge, Keep: keep}
}

// Run sweeps on interval until ctx is cancelled.
func (w *ChatRetentionWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("🧹 Chat retention worker stopped")
			return
		case <-ticker.C:
			if err := w.Sweep(); err != nil {
				log.Error().Err(err).Msg("❌ Chat retention sweep failed")
			}
		}
	}
}

// Sweep applies both retention rules once.
func (w *ChatRetentionWorker) Sweep() error {
	cutoff := time.Now().Add(-w.MaxAge)
	res := w.DB.Where("channel = ? AND created_at < ?", models.ChatChannelGlobal, cutoff).
		Delete(&models.ChatMessage{})
	if res.Error != nil {
		return res.Error
	}
	aged := res.RowsAffected

	// Find the timestamp of the Keep-th newest message and delete below it.
	var boundary models.ChatMessage
	err := w.DB.Where("channel = ?", models.ChatChannelGlobal).
		Order("created_at DESC").Offset(w.Keep - 1).Limit(1).
		First(&boundary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			if aged > 0 {
				log.Info().Int64("aged_out", aged).Msg("🧹 Chat retention sweep")
			}
			return nil
		}
		return err
	}

	res = w.DB.Where("channel = ? AND created_at < ?", models.ChatChannelGlobal, boundary.CreatedAt).
		Delete(&models.ChatMessage{})
	if res.Error != nil {
		return res.Error
	}

	if aged > 0 || res.RowsAffected > 0 {
		log.Info().Int64("aged_out", aged).Int64("over_cap", res.RowsAffected).Msg("🧹 Chat retention sweep")
	}
	return nil
}
