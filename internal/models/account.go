package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeBankAccount AccountType = "bank_account"
	AccountTypeCreditCard  AccountType = "credit_card"
	AccountTypeDebitCard   AccountType = "debit_card"
	AccountTypeCash        AccountType = "cash"
	AccountTypeAsset       AccountType = "asset"
	AccountTypeLiability   AccountType = "liability"
)

// AccountTypes lists every supported account type.
var AccountTypes = []AccountType{
	AccountTypeBankAccount, AccountTypeCreditCard, AccountTypeDebitCard,
	AccountTypeCash, AccountTypeAsset, AccountTypeLiability,
}

// Valid reports whether t is a supported account type.
func (t AccountType) Valid() bool {
	for _, v := range AccountTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsAsset reports whether balances of this type count towards assets.
func (t AccountType) IsAsset() bool {
	switch t {
	case AccountTypeBankAccount, AccountTypeDebitCard, AccountTypeCash, AccountTypeAsset:
		return true
	}
	return false
}

// IsLiability reports whether balances of this type count towards liabilities.
func (t AccountType) IsLiability() bool {
	return t == AccountTypeCreditCard || t == AccountTypeLiability
}

// Account holds money. Balance is only ever changed by transactions.
type Account struct {
	Base
	Name        string           `gorm:"not null;index" json:"name"`
	Type        AccountType      `gorm:"not null" json:"type"`
	Balance     decimal.Decimal  `gorm:"type:numeric(18,2);not null;default:0" json:"balance"`
	Currency    string           `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Description string           `json:"description"`
	CreditLimit *decimal.Decimal `gorm:"type:numeric(18,2)" json:"credit_limit,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	IsActive    bool             `gorm:"not null;default:true;index" json:"is_active"`
}
