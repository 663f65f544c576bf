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

func TestGetUserDetail(t *testing.T) {
	db := openTestDB(t)
	ts := NewTournamentService(db, testConfig())
	us := NewUserService(db)

	user := createUser(t, db, 1000)
	tr := createTournament(t, db, 100, 10, time.Now().Add(time.Hour))
	enroll(t, ts, tr.ID, user.ID)

	app := fiber.New()
	app.Get("/api/admin/users/:id", us.GetUserDetail)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/users/"+user.ID, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User        models.User         `json:"user"`
		Payments    []models.Payment    `json:"payments"`
		Enrollments []models.Enrollment `json:"enrollments"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, user.ID, body.User.ID)
	require.Len(t, body.Enrollments, 1, "enrolled user must show their enrollment")
	assert.Equal(t, tr.ID, body.Enrollments[0].TournamentID)

	t.Run("unknown user is a 404", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/users/nope", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
