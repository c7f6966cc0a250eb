package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides common fields for all database models
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// PaymentStatus is the subscription payment state machine variable.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRejected   PaymentStatus = "rejected"
	PaymentStatusIncomplete PaymentStatus = "incomplete"
)

// PaymentMethod identifies the mobile-money rail a payment arrived on.
type PaymentMethod string

const (
	PaymentMethodEasypaisa PaymentMethod = "easypaisa"
	PaymentMethodJazzCash  PaymentMethod = "jazzcash"
	PaymentMethodRaast     PaymentMethod = "raast"
)

// VerificationMethod records how a payment was verified.
type VerificationMethod string

const (
	VerificationMethodAutomatic VerificationMethod = "automatic"
	VerificationMethodManual    VerificationMethod = "manual"
)
