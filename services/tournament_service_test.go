package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"battle-manager/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollUser(t *testing.T) {
	future := time.Now().Add(2 * time.Hour)

	t.Run("happy path deducts fee, takes a seat, seeds kill entry", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		user := createUser(t, db, 1000)
		tr := createTournament(t, db, 300, 10, future)

		require.NoError(t, svc.EnrollUser(tr.ID, user.ID))

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(700), got.Points)

		var gotT models.Tournament
		require.NoError(t, db.First(&gotT, "id = ?", tr.ID).Error)
		assert.Equal(t, 1, gotT.CurrentPlayers)

		var e models.Enrollment
		require.NoError(t, db.Where("tournament_id = ? AND user_id = ?", tr.ID, user.ID).First(&e).Error)
		assert.Equal(t, int64(300), e.PaidPoints)

		var k models.KillEntry
		require.NoError(t, db.Where("tournament_id = ? AND user_id = ?", tr.ID, user.ID).First(&k).Error)
		assert.Equal(t, 0, k.Kills)
	})

	t.Run("insufficient balance leaves everything untouched", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		user := createUser(t, db, 100)
		tr := createTournament(t, db, 300, 10, future)

		err := svc.EnrollUser(tr.ID, user.ID)
		assert.ErrorIs(t, err, models.ErrInsufficientPoints)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(100), got.Points, "failed enroll must not debit")

		var gotT models.Tournament
		require.NoError(t, db.First(&gotT, "id = ?", tr.ID).Error)
		assert.Equal(t, 0, gotT.CurrentPlayers, "failed enroll must release the seat")

		var count int64
		db.Model(&models.Enrollment{}).Where("tournament_id = ?", tr.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("full tournament rejects and does not debit", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		tr := createTournament(t, db, 100, 1, future)
		first := createUser(t, db, 500)
		second := createUser(t, db, 500)

		enroll(t, svc, tr.ID, first.ID)
		err := svc.EnrollUser(tr.ID, second.ID)
		assert.ErrorIs(t, err, models.ErrTournamentFull)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", second.ID).Error)
		assert.Equal(t, int64(500), got.Points)
	})

	t.Run("double enroll rejected, fee charged once", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		user := createUser(t, db, 1000)
		tr := createTournament(t, db, 300, 10, future)

		enroll(t, svc, tr.ID, user.ID)
		err := svc.EnrollUser(tr.ID, user.ID)
		assert.ErrorIs(t, err, models.ErrAlreadyEnrolled)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(700), got.Points)
	})

	t.Run("enrollment closes once the tournament is effectively live", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		user := createUser(t, db, 1000)
		// Stored status is still upcoming but the start time has passed.
		tr := createTournament(t, db, 300, 10, time.Now().Add(-time.Minute))

		err := svc.EnrollUser(tr.ID, user.ID)
		assert.ErrorIs(t, err, models.ErrEnrollmentClosed)
	})

	t.Run("lookup works by id and by slug", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		tr := createTournament(t, db, 100, 10, future)
		require.NoError(t, db.Model(tr).Update("slug", "friday-night-cup").Error)

		app := fiber.New()
		app.Get("/api/tournaments/:id", svc.GetTournament)

		for _, param := range []string{tr.ID, "friday-night-cup"} {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/tournaments/"+param, nil))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode, "lookup by %q", param)

			var got models.Tournament
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			resp.Body.Close()
			assert.Equal(t, tr.ID, got.ID)
		}

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/tournaments/no-such-cup", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("inactive user is rejected as inactive, not as broke", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewTournamentService(db, testConfig())
		user := createUser(t, db, 1000)
		require.NoError(t, db.Model(user).Update("is_active", false).Error)
		tr := createTournament(t, db, 300, 10, future)

		err := svc.EnrollUser(tr.ID, user.ID)
		assert.ErrorIs(t, err, models.ErrUserInactive)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(1000), got.Points)
	})
}
