package services

import (
	"testing"
	"time"

	"battle-manager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceStatuses(t *testing.T) {
	now := time.Now()

	t.Run("flips started tournaments to live", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		started := createTournament(t, db, 100, 10, now.Add(-time.Minute))
		pending := createTournament(t, db, 100, 10, now.Add(time.Hour))

		flipped, err := svc.AdvanceStatuses(now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), flipped)

		var got models.Tournament
		require.NoError(t, db.First(&got, "id = ?", started.ID).Error)
		assert.Equal(t, models.StatusLive, got.Status)
		got = models.Tournament{}
		require.NoError(t, db.First(&got, "id = ?", pending.ID).Error)
		assert.Equal(t, models.StatusUpcoming, got.Status)
	})

	t.Run("waits for the reveal time when it is after the start", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		tr := createTournament(t, db, 100, 10, now.Add(-time.Hour))
		reveal := now.Add(30 * time.Minute)
		require.NoError(t, db.Model(tr).Update("reveal_time", reveal).Error)

		flipped, err := svc.AdvanceStatuses(now)
		require.NoError(t, err)
		assert.Zero(t, flipped, "started but unrevealed must stay upcoming")

		var got models.Tournament
		require.NoError(t, db.First(&got, "id = ?", tr.ID).Error)
		assert.Equal(t, models.StatusUpcoming, got.Status)

		// Once the reveal gate passes, the flip happens.
		flipped, err = svc.AdvanceStatuses(reveal.Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(1), flipped)
	})

	t.Run("terminal states untouched", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		tr := createTournament(t, db, 100, 10, now.Add(-time.Hour))
		require.NoError(t, db.Model(tr).Update("status", models.StatusCancelled).Error)

		flipped, err := svc.AdvanceStatuses(now)
		require.NoError(t, err)
		assert.Zero(t, flipped)
	})
}
