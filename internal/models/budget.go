package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether p is a supported budget period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodYearly:
		return true
	}
	return false
}

// BudgetStatus classifies a budget by how much of it has been spent.
type BudgetStatus string

const (
	BudgetStatusOnTrack  BudgetStatus = "on_track"
	BudgetStatusWarning  BudgetStatus = "warning"
	BudgetStatusCritical BudgetStatus = "critical"
	BudgetStatusExceeded BudgetStatus = "exceeded"
)

// Budget caps spending in one category over a concrete period instance.
// Spent is a cached aggregate refreshed by recomputation.
type Budget struct {
	Base
	CategoryID string          `gorm:"type:varchar(36);not null;index:idx_budgets_category_period,priority:1" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Period     BudgetPeriod    `gorm:"not null;index:idx_budgets_category_period,priority:2" json:"period"`
	StartDate  time.Time       `gorm:"not null;index:idx_budgets_window,priority:1" json:"start_date"`
	EndDate    time.Time       `gorm:"not null;index:idx_budgets_window,priority:2" json:"end_date"`
	Spent      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"spent"`
	IsActive   bool            `gorm:"not null;default:true;index" json:"is_active"`
}

// Progress returns spent as a percentage of amount, or zero for a zero amount.
func (b *Budget) Progress() decimal.Decimal {
	if b.Amount.IsZero() {
		return decimal.Zero
	}
	return b.Spent.Div(b.Amount).Mul(decimal.NewFromInt(100))
}

// Remaining returns amount minus spent; negative once the budget is exceeded.
func (b *Budget) Remaining() decimal.Decimal {
	return b.Amount.Sub(b.Spent)
}

var (
	fifty       = decimal.NewFromInt(50)
	seventyFive = decimal.NewFromInt(75)
	oneHundred  = decimal.NewFromInt(100)
)

// StatusFor maps a progress percentage onto a budget status.
func StatusFor(progress decimal.Decimal) BudgetStatus {
	switch {
	case progress.LessThan(fifty):
		return BudgetStatusOnTrack
	case progress.LessThan(seventyFive):
		return BudgetStatusWarning
	case progress.LessThan(oneHundred):
		return BudgetStatusCritical
	default:
		return BudgetStatusExceeded
	}
}

// Status returns the budget's status derived from its progress.
func (b *Budget) Status() BudgetStatus {
	return StatusFor(b.Progress())
}
