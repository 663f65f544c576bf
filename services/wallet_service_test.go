package services

import (
	"testing"

	"battle-manager/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createPendingPayment(t *testing.T, db *gorm.DB, userID string, amount int64, typ models.PaymentType) *models.Payment {
	t.Helper()
	p := &models.Payment{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount,
		Type:   typ,
		Status: models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestApprovePayment(t *testing.T) {
	t.Run("add_money credits the balance on approval", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewWalletService(db)
		user := createUser(t, db, 100)
		p := createPendingPayment(t, db, user.ID, 500, models.PaymentTypeAddMoney)

		require.NoError(t, svc.Approve(p.ID, "admin-1"))

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(600), got.Points)

		var gotP models.Payment
		require.NoError(t, db.First(&gotP, "id = ?", p.ID).Error)
		assert.Equal(t, models.PaymentStatusApproved, gotP.Status)
		assert.Equal(t, "admin-1", gotP.ApprovedBy)
		require.NotNil(t, gotP.ApprovedAt)

		var n models.Notification
		require.NoError(t, db.Where("user_id = ? AND type = ?", user.ID, models.NotifyPaymentApproved).First(&n).Error)
	})

	t.Run("withdrawal deducts on approval", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewWalletService(db)
		user := createUser(t, db, 1000)
		p := createPendingPayment(t, db, user.ID, 400, models.PaymentTypeWithdrawal)

		require.NoError(t, svc.Approve(p.ID, "admin-1"))

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(600), got.Points)
	})

	t.Run("withdrawal fails when the balance dropped since the request", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewWalletService(db)
		user := createUser(t, db, 1000)
		p := createPendingPayment(t, db, user.ID, 400, models.PaymentTypeWithdrawal)

		// Balance spent on enrollments between request and review.
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
			Update("points", 300).Error)

		err := svc.Approve(p.ID, "admin-1")
		assert.ErrorIs(t, err, models.ErrInsufficientPoints)

		var gotP models.Payment
		require.NoError(t, db.First(&gotP, "id = ?", p.ID).Error)
		assert.Equal(t, models.PaymentStatusPending, gotP.Status, "failed approval leaves the request pending")

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(300), got.Points)
	})

	t.Run("double approval is rejected", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewWalletService(db)
		user := createUser(t, db, 100)
		p := createPendingPayment(t, db, user.ID, 500, models.PaymentTypeAddMoney)

		require.NoError(t, svc.Approve(p.ID, "admin-1"))
		err := svc.Approve(p.ID, "admin-1")
		assert.Error(t, err)

		var got models.User
		require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
		assert.Equal(t, int64(600), got.Points, "second approval must not credit again")
	})

	t.Run("winning rows are not reviewable", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewWalletService(db)
		user := createUser(t, db, 100)
		p := createPendingPayment(t, db, user.ID, 500, models.PaymentTypeWinning)

		assert.Error(t, svc.Approve(p.ID, "admin-1"))
	})
}
