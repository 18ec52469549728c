package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome            TransactionType = "income"
	TransactionTypeExpense           TransactionType = "expense"
	TransactionTypeTransfer          TransactionType = "transfer"
	TransactionTypeAssetPurchase     TransactionType = "asset_purchase"
	TransactionTypeLiabilityPayment  TransactionType = "liability_payment"
	TransactionTypeCreditCardPayment TransactionType = "credit_card_payment"
)

// TransactionTypes lists every supported transaction type.
var TransactionTypes = []TransactionType{
	TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer,
	TransactionTypeAssetPurchase, TransactionTypeLiabilityPayment, TransactionTypeCreditCardPayment,
}

// SpendingTypes are the transaction types that count against a budget.
var SpendingTypes = []TransactionType{
	TransactionTypeExpense, TransactionTypeAssetPurchase, TransactionTypeCreditCardPayment,
}

// Valid reports whether t is a supported transaction type.
func (t TransactionType) Valid() bool {
	for _, v := range TransactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// NeedsSource reports whether the type debits a from account.
func (t TransactionType) NeedsSource() bool { return t != TransactionTypeIncome }

// NeedsDestination reports whether the type credits a to account.
func (t TransactionType) NeedsDestination() bool { return t != TransactionTypeExpense }

// Transaction is a single dated movement of money. Amount is always positive;
// the type decides which account is debited or credited.
type Transaction struct {
	Base
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Type          TransactionType `gorm:"not null;index" json:"type"`
	Description   string          `json:"description"`
	Date          time.Time       `gorm:"not null;index:idx_transactions_date_category,priority:1;index:idx_transactions_from_date,priority:2;index:idx_transactions_to_date,priority:2" json:"date"`
	CategoryID    *string         `gorm:"type:varchar(36);index:idx_transactions_date_category,priority:2" json:"category_id,omitempty"`
	FromAccountID *string         `gorm:"type:varchar(36);index:idx_transactions_from_date,priority:1" json:"from_account_id,omitempty"`
	ToAccountID   *string         `gorm:"type:varchar(36);index:idx_transactions_to_date,priority:1" json:"to_account_id,omitempty"`
	Tags          StringList      `gorm:"type:text" json:"tags"`
	IsReconciled  bool            `gorm:"not null;default:false" json:"is_reconciled"`
}

// StringList is an ordered set of strings stored as a JSON array.
type StringList []string

// NewStringList trims, drops empty values and removes duplicates while
// keeping the first occurrence of each value.
func NewStringList(values []string) StringList {
	out := StringList{}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return err
	}
	*l = NewStringList(values)
	return nil
}
