package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User holds the subscription-mirroring fields the reconciliation core
// maintains. Account management itself lives in the user service; this model
// only carries what verification reads and writes.
type User struct {
	BaseModel

	Email string `json:"email" gorm:"not null;uniqueIndex"`
	Phone string `json:"phone" gorm:"not null;uniqueIndex;size:20"` // Format: +923XXXXXXXXX

	// Reward balances credited by referral/withdrawal flows
	Rewards decimal.Decimal `json:"rewards" gorm:"type:decimal(10,2);default:0"`
	Balance decimal.Decimal `json:"balance" gorm:"type:decimal(10,2);default:0"`

	// Mirror of the active subscription, updated on verification
	SubscriptionStatus     string     `json:"subscription_status" gorm:"size:20;default:'inactive'"`
	SubscriptionExpiryDate *time.Time `json:"subscription_expiry_date"`
	PackageID              *uint      `json:"package_id"`
}
