package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentDetails is the expected-payment snapshot recorded when a
// subscription is created. Incoming gateway messages are matched against it.
type PaymentDetails struct {
	TransactionID string          `json:"transaction_id" gorm:"column:payment_transaction_id;size:100;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"column:payment_amount;type:decimal(10,2)"`
	Method        PaymentMethod   `json:"method" gorm:"column:payment_method;size:20"`
}

// Subscription stores a user's package purchase and its payment lifecycle.
// A subscription starts pending and becomes active only once its payment has
// been verified, automatically or by an admin.
type Subscription struct {
	BaseModel

	UserID    uint `json:"user_id" gorm:"not null;index"`
	User      User `json:"-" gorm:"foreignKey:UserID"`
	PackageID uint `json:"package_id" gorm:"not null;index"`
	// 1, 2 or 3 to easily identify which package was purchased
	PackageType int `json:"package_type" gorm:"not null"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`
	// False until payment is completed and verified
	IsActive bool `json:"is_active" gorm:"default:false;index"`

	// Payment reference the user quoted when submitting the subscription
	PaymentID     string         `json:"payment_id" gorm:"size:100;index"`
	PaymentStatus PaymentStatus  `json:"payment_status" gorm:"not null;size:20;default:'pending';index"`
	PaymentDetails PaymentDetails `json:"payment_details" gorm:"embedded"`

	// Verification outcome
	PaymentVerified           bool               `json:"payment_verified" gorm:"default:false"`
	PaymentVerificationMethod VerificationMethod `json:"payment_verification_method" gorm:"size:20"`
	VerificationDate          *time.Time         `json:"verification_date"`
	LastVerificationAttempt   *time.Time         `json:"last_verification_attempt"`
	// Id of the gateway message that settled this subscription, when known
	PaymentNotificationID string `json:"payment_notification_id" gorm:"size:100"`

	// Admin approval tracking
	AdminVerified   bool   `json:"admin_verified" gorm:"default:false"`
	AdminVerifiedBy string `json:"admin_verified_by" gorm:"size:100"`
	AdminNotes      string `json:"admin_notes" gorm:"type:text"`
}

// SubscriptionSummary is the reduced view returned by the manual
// verification endpoints.
type SubscriptionSummary struct {
	ID         uint            `json:"id"`
	PackageID  uint            `json:"package_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     PaymentStatus   `json:"status"`
	ExpiryDate time.Time       `json:"expiry_date"`
}

// Summary builds the reduced view of a subscription.
func (s *Subscription) Summary() *SubscriptionSummary {
	return &SubscriptionSummary{
		ID:         s.ID,
		PackageID:  s.PackageID,
		Amount:     s.PaymentDetails.Amount,
		Status:     s.PaymentStatus,
		ExpiryDate: s.EndDate,
	}
}
