package database

import (
	"time"

	"payment-verification-api/internal/models"

	"github.com/shopspring/decimal"
)

// GetSubscriptionByID fetches a subscription by primary key
func GetSubscriptionByID(id uint) (*models.Subscription, error) {
	var subscription models.Subscription
	err := DB.First(&subscription, id).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// GetUserByID fetches a user by primary key
func GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := DB.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPackageByID fetches a package by primary key
func GetPackageByID(id uint) (*models.Package, error) {
	var pkg models.Package
	err := DB.First(&pkg, id).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// FindCompletedVerifiedByTransactionID finds a subscription that already
// consumed the given transaction id. This is the authoritative duplicate
// check: it runs against the store on every verification, never only against
// the in-memory cache.
func FindCompletedVerifiedByTransactionID(transactionID string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := DB.Where("payment_transaction_id = ? AND payment_status = ? AND payment_verified = ?",
		transactionID, models.PaymentStatusCompleted, true).First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// FindPendingByTransactionID finds the pending subscription quoting the given
// transaction id, either in its recorded payment details or as its payment
// reference.
func FindPendingByTransactionID(transactionID string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := DB.Where("payment_status = ? AND (payment_transaction_id = ? OR payment_id = ?)",
		models.PaymentStatusPending, transactionID, transactionID).First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// FindPendingByAmountRange searches pending subscriptions by expected amount
// window alone, optionally constrained by payment method.
func FindPendingByAmountRange(minAmount, maxAmount decimal.Decimal, method models.PaymentMethod) (*models.Subscription, error) {
	query := DB.Where("payment_status = ? AND payment_amount >= ? AND payment_amount <= ?",
		models.PaymentStatusPending, minAmount, maxAmount)
	if method != "" {
		query = query.Where("payment_method = ?", method)
	}

	var subscription models.Subscription
	err := query.First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// CompletePendingSubscription flips a pending subscription to completed with
// a conditional update keyed on the current status. Returns false when the
// row was no longer pending, which closes the race between two concurrent
// ticks or an automatic and a manual verification landing together.
func CompletePendingSubscription(subscription *models.Subscription, updates map[string]interface{}) (bool, error) {
	result := DB.Model(&models.Subscription{}).
		Where("id = ? AND payment_status = ?", subscription.ID, models.PaymentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkPendingSubscriptionStatus moves a pending subscription to a terminal
// failure state (failed/incomplete), also conditional on it still being
// pending.
func MarkPendingSubscriptionStatus(subscriptionID uint, status models.PaymentStatus, now time.Time) (bool, error) {
	result := DB.Model(&models.Subscription{}).
		Where("id = ? AND payment_status = ?", subscriptionID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":            status,
			"last_verification_attempt": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateSubscription persists a full subscription record
func UpdateSubscription(subscription *models.Subscription) error {
	return DB.Save(subscription).Error
}

// UpdateUserSubscriptionMirror copies the verified subscription state onto
// the owning user record.
func UpdateUserSubscriptionMirror(userID uint, expiry time.Time, packageID uint) error {
	return DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_status":      "active",
			"subscription_expiry_date": expiry,
			"package_id":               packageID,
		}).Error
}

// GetPendingVerifications lists pending subscriptions created within the last
// 7 days, newest first, with the total count for pagination.
func GetPendingVerifications(limit, skip int) ([]models.Subscription, int64, error) {
	cutoff := time.Now().AddDate(0, 0, -7)

	var totalCount int64
	err := DB.Model(&models.Subscription{}).
		Where("payment_status = ? AND created_at >= ?", models.PaymentStatusPending, cutoff).
		Count(&totalCount).Error
	if err != nil {
		return nil, 0, err
	}

	var subscriptions []models.Subscription
	err = DB.Where("payment_status = ? AND created_at >= ?", models.PaymentStatusPending, cutoff).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&subscriptions).Error
	if err != nil {
		return nil, 0, err
	}

	return subscriptions, totalCount, nil
}
