package database

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"payment-verification-api/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var dbTestCounter int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:db_test_%d?mode=memory&cache=shared",
		atomic.AddInt64(&dbTestCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Package{}, &models.Subscription{}))

	DB = db
	return db
}

func createSubscription(t *testing.T, db *gorm.DB, status models.PaymentStatus, amount string, transactionID string) *models.Subscription {
	t.Helper()

	sub := &models.Subscription{
		UserID:        1,
		PackageID:     1,
		PackageType:   1,
		StartDate:     time.Now(),
		EndDate:       time.Now().AddDate(0, 1, 0),
		PaymentStatus: status,
		PaymentDetails: models.PaymentDetails{
			TransactionID: transactionID,
			Amount:        decimal.RequireFromString(amount),
			Method:        models.PaymentMethodEasypaisa,
		},
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestFindPendingByTransactionIDMatchesPaymentReference(t *testing.T) {
	db := setupTestDB(t)

	sub := createSubscription(t, db, models.PaymentStatusPending, "1000", "")
	sub.PaymentID = "36620983731"
	require.NoError(t, db.Save(sub).Error)

	found, err := FindPendingByTransactionID("36620983731")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, found.ID)
}

func TestFindPendingByTransactionIDIgnoresNonPending(t *testing.T) {
	db := setupTestDB(t)
	createSubscription(t, db, models.PaymentStatusCompleted, "1000", "36620983731")

	_, err := FindPendingByTransactionID("36620983731")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindPendingByAmountRange(t *testing.T) {
	db := setupTestDB(t)
	sub := createSubscription(t, db, models.PaymentStatusPending, "1000", "")

	found, err := FindPendingByAmountRange(
		decimal.RequireFromString("950"), decimal.RequireFromString("1050"), "")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, found.ID)

	// A window that excludes the expected amount finds nothing
	_, err = FindPendingByAmountRange(
		decimal.RequireFromString("475"), decimal.RequireFromString("525"), "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// A mismatched method constraint finds nothing
	_, err = FindPendingByAmountRange(
		decimal.RequireFromString("950"), decimal.RequireFromString("1050"),
		models.PaymentMethodJazzCash)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCompletePendingSubscriptionIsConditional(t *testing.T) {
	db := setupTestDB(t)
	sub := createSubscription(t, db, models.PaymentStatusPending, "1000", "36620983731")

	updates := map[string]interface{}{
		"payment_status":   models.PaymentStatusCompleted,
		"payment_verified": true,
	}

	claimed, err := CompletePendingSubscription(sub, updates)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A second attempt loses the claim: the row is no longer pending
	claimed, err = CompletePendingSubscription(sub, updates)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMarkPendingSubscriptionStatus(t *testing.T) {
	db := setupTestDB(t)
	sub := createSubscription(t, db, models.PaymentStatusPending, "1000", "")

	claimed, err := MarkPendingSubscriptionStatus(sub.ID, models.PaymentStatusFailed, time.Now())
	require.NoError(t, err)
	assert.True(t, claimed)

	var got models.Subscription
	require.NoError(t, db.First(&got, sub.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)
	assert.NotNil(t, got.LastVerificationAttempt)

	claimed, err = MarkPendingSubscriptionStatus(sub.ID, models.PaymentStatusIncomplete, time.Now())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestUpdateUserSubscriptionMirror(t *testing.T) {
	db := setupTestDB(t)

	user := &models.User{Email: "mirror@example.com", Phone: "+923001112233"}
	require.NoError(t, db.Create(user).Error)

	expiry := time.Now().AddDate(0, 1, 0)
	require.NoError(t, UpdateUserSubscriptionMirror(user.ID, expiry, 3))

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.Equal(t, "active", got.SubscriptionStatus)
	require.NotNil(t, got.PackageID)
	assert.Equal(t, uint(3), *got.PackageID)
	require.NotNil(t, got.SubscriptionExpiryDate)
}

func TestGetPendingVerificationsWindow(t *testing.T) {
	db := setupTestDB(t)

	recent := createSubscription(t, db, models.PaymentStatusPending, "1000", "")
	createSubscription(t, db, models.PaymentStatusCompleted, "1000", "")

	// Push one subscription outside the 7-day window
	old := createSubscription(t, db, models.PaymentStatusPending, "1000", "")
	require.NoError(t, db.Model(old).Update("created_at", time.Now().AddDate(0, 0, -10)).Error)

	subs, total, err := GetPendingVerifications(20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, subs, 1)
	assert.Equal(t, recent.ID, subs[0].ID)
}
