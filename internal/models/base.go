package models

import (
	"time"

	"tally/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// MoneyPlaces is the number of decimal places money is stored with.
const MoneyPlaces = 2

// RoundMoney rounds an amount to the stored precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// All returns every persisted model, in dependency order, for auto-migration.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Category{},
		&Transaction{},
		&Budget{},
		&Log{},
		&Setting{},
	}
}
