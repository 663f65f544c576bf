package services

import (
	"testing"
	"time"

	"battle-manager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSetKillCounts(t *testing.T) {
	future := time.Now().Add(2 * time.Hour)

	t.Run("updates enrolled players", func(t *testing.T) {
		db := openTestDB(t)
		ts := NewTournamentService(db, testConfig())
		ps := NewPayoutService(db)
		tr := createTournament(t, db, 100, 10, future)
		user := createUser(t, db, 500)
		enroll(t, ts, tr.ID, user.ID)

		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 7}}))

		var k models.KillEntry
		require.NoError(t, db.Where("tournament_id = ? AND user_id = ?", tr.ID, user.ID).First(&k).Error)
		assert.Equal(t, 7, k.Kills)
	})

	t.Run("rejects users not on the kill list", func(t *testing.T) {
		db := openTestDB(t)
		ps := NewPayoutService(db)
		tr := createTournament(t, db, 100, 10, future)
		stranger := createUser(t, db, 500)

		err := ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: stranger.ID, Kills: 3}})
		assert.Error(t, err)
	})

	t.Run("locked after payout", func(t *testing.T) {
		db := openTestDB(t)
		ts := NewTournamentService(db, testConfig())
		ps := NewPayoutService(db)
		tr := createTournament(t, db, 100, 10, future)
		user := createUser(t, db, 500)
		enroll(t, ts, tr.ID, user.ID)
		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 4}}))

		_, _, err := ps.CreditAll(tr.ID, nil, "admin-1")
		require.NoError(t, err)

		err = ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 9}})
		assert.ErrorIs(t, err, models.ErrKillsLocked)
	})
}

func TestCreditOne(t *testing.T) {
	future := time.Now().Add(2 * time.Hour)

	setup := func(t *testing.T) (*PayoutService, *models.Tournament, *models.User, *gorm.DB) {
		db := openTestDB(t)
		ts := NewTournamentService(db, testConfig())
		ps := NewPayoutService(db)
		tr := createTournament(t, db, 100, 10, future) // 10 points per kill
		user := createUser(t, db, 500)
		enroll(t, ts, tr.ID, user.ID)
		return ps, tr, user, db
	}

	t.Run("credits kills times rate", func(t *testing.T) {
		ps, tr, user, db := setup(t)
		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 5}}))

		amount, err := ps.CreditOne(tr.ID, user.ID, 0, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, int64(50), amount)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(450), got.Points, "400 after fee + 50 prize")

		var p models.Payment
		require.NoError(t, db.Where("user_id = ? AND type = ?", user.ID, models.PaymentTypeWinning).First(&p).Error)
		assert.Equal(t, models.PaymentStatusApproved, p.Status)
		assert.Equal(t, tr.ID, p.TournamentID)

		var n models.Notification
		require.NoError(t, db.Where("user_id = ? AND type = ?", user.ID, models.NotifyTournamentWinning).First(&n).Error)
	})

	t.Run("custom amount overrides", func(t *testing.T) {
		ps, tr, user, _ := setup(t)
		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 5}}))

		amount, err := ps.CreditOne(tr.ID, user.ID, 200, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, int64(200), amount)
	})

	t.Run("second credit is rejected", func(t *testing.T) {
		ps, tr, user, db := setup(t)
		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 5}}))

		_, err := ps.CreditOne(tr.ID, user.ID, 0, "admin-1")
		require.NoError(t, err)
		_, err = ps.CreditOne(tr.ID, user.ID, 0, "admin-1")
		assert.ErrorIs(t, err, models.ErrAlreadyCredited)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(450), got.Points, "double credit must not double pay")
	})

	t.Run("zero kills and no override is an error", func(t *testing.T) {
		ps, tr, user, _ := setup(t)
		_, err := ps.CreditOne(tr.ID, user.ID, 0, "admin-1")
		assert.ErrorIs(t, err, models.ErrNothingToCredit)
	})
}

func TestCreditAll(t *testing.T) {
	future := time.Now().Add(2 * time.Hour)

	t.Run("pays everyone once, skips zero-credit players", func(t *testing.T) {
		db := openTestDB(t)
		ts := NewTournamentService(db, testConfig())
		ps := NewPayoutService(db)
		tr := createTournament(t, db, 100, 10, future)
		shooter := createUser(t, db, 500)
		camper := createUser(t, db, 500)
		enroll(t, ts, tr.ID, shooter.ID)
		enroll(t, ts, tr.ID, camper.ID)
		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: shooter.ID, Kills: 8}}))

		players, total, err := ps.CreditAll(tr.ID, nil, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, 1, players)
		assert.Equal(t, int64(80), total)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", camper.ID).Error)
		assert.Equal(t, int64(400), got.Points, "zero-kill player gets nothing but loses nothing")

		var gotT models.Tournament
		require.NoError(t, db.First(&gotT, "id = ?", tr.ID).Error)
		require.NotNil(t, gotT.PaidAt)
		assert.Equal(t, int64(80), gotT.TotalPaid)
		assert.Equal(t, models.StatusCompleted, gotT.Status)
	})

	t.Run("second run is rejected", func(t *testing.T) {
		db := openTestDB(t)
		ts := NewTournamentService(db, testConfig())
		ps := NewPayoutService(db)
		tr := createTournament(t, db, 100, 10, future)
		user := createUser(t, db, 500)
		enroll(t, ts, tr.ID, user.ID)
		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 2}}))

		_, _, err := ps.CreditAll(tr.ID, nil, "admin-1")
		require.NoError(t, err)
		_, _, err = ps.CreditAll(tr.ID, nil, "admin-1")
		assert.ErrorIs(t, err, models.ErrAlreadyPaid)
	})

	t.Run("rate override applies and persists", func(t *testing.T) {
		db := openTestDB(t)
		ts := NewTournamentService(db, testConfig())
		ps := NewPayoutService(db)
		tr := createTournament(t, db, 100, 10, future)
		user := createUser(t, db, 500)
		enroll(t, ts, tr.ID, user.ID)
		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 3}}))

		rate := int64(25)
		_, total, err := ps.CreditAll(tr.ID, &rate, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, int64(75), total)

		var gotT models.Tournament
		require.NoError(t, db.First(&gotT, "id = ?", tr.ID).Error)
		assert.Equal(t, int64(25), gotT.PointsPerKill)
	})

	t.Run("already credited players are not paid again", func(t *testing.T) {
		db := openTestDB(t)
		ts := NewTournamentService(db, testConfig())
		ps := NewPayoutService(db)
		tr := createTournament(t, db, 100, 10, future)
		user := createUser(t, db, 500)
		enroll(t, ts, tr.ID, user.ID)
		require.NoError(t, ps.SetKillCounts(tr.ID, []KillUpdate{{UserID: user.ID, Kills: 4}}))

		_, err := ps.CreditOne(tr.ID, user.ID, 0, "admin-1")
		require.NoError(t, err)

		players, total, err := ps.CreditAll(tr.ID, nil, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, 0, players)
		assert.Equal(t, int64(0), total)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(440), got.Points)
	})
}
