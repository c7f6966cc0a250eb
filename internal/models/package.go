package models

import (
	"github.com/shopspring/decimal"
)

// Package is a paid subscription package offered by the reseller.
type Package struct {
	BaseModel

	Name         string          `json:"name" gorm:"not null;uniqueIndex"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	ValidityDays int             `json:"validity_days" gorm:"not null"`
	MaxNumbers   int             `json:"max_numbers" gorm:"not null"` // Limit of numbers user can use
	PackageType  int             `json:"package_type" gorm:"not null"` // 1, 2 or 3
}
