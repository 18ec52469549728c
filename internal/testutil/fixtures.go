package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tally/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Dec parses a decimal literal, failing loudly on typos in test data.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestAccount creates an active account of the given type and balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, accountType models.AccountType, balance string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     accountType,
		Balance:  Dec(balance),
		Currency: "USD",
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a non-default category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return createCategory(t, db, fmt.Sprintf("Test Category %d", nextID()), categoryType, false)
}

// CreateTestDefaultCategory creates the default category for a type.
func CreateTestDefaultCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return createCategory(t, db, fmt.Sprintf("Uncategorized %s %d", categoryType, nextID()), categoryType, true)
}

func createCategory(t *testing.T, db *gorm.DB, name string, categoryType models.CategoryType, isDefault bool) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:      name,
		Type:      categoryType,
		IsDefault: isDefault,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// TransactionFixture describes a transaction row written without touching balances.
type TransactionFixture struct {
	Type          models.TransactionType
	Amount        string
	Date          time.Time
	CategoryID    *string
	FromAccountID *string
	ToAccountID   *string
	Description   string
	Tags          []string
}

// CreateTestTransaction inserts a transaction row directly. Account balances
// are not adjusted.
func CreateTestTransaction(t *testing.T, db *gorm.DB, f TransactionFixture) *models.Transaction {
	t.Helper()

	if f.Date.IsZero() {
		f.Date = time.Now().UTC()
	}
	tx := &models.Transaction{
		Type:          f.Type,
		Amount:        Dec(f.Amount),
		Date:          f.Date.UTC(),
		CategoryID:    f.CategoryID,
		FromAccountID: f.FromAccountID,
		ToAccountID:   f.ToAccountID,
		Description:   f.Description,
		Tags:          models.NewStringList(f.Tags),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates an active budget over [start, end].
func CreateTestBudget(t *testing.T, db *gorm.DB, categoryID, amount string, start, end time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		CategoryID: categoryID,
		Amount:     Dec(amount),
		Period:     models.BudgetPeriodMonthly,
		StartDate:  start.UTC(),
		EndDate:    end.UTC(),
		Spent:      decimal.Zero,
		IsActive:   true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// SetTestSetting stores a user preference.
func SetTestSetting(t *testing.T, db *gorm.DB, key, value string) {
	t.Helper()

	if err := db.Save(&models.Setting{Key: key, Value: value}).Error; err != nil {
		t.Fatalf("failed to save test setting: %v", err)
	}
}

// ReloadAccount reads an account back from the store.
func ReloadAccount(t *testing.T, db *gorm.DB, id string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", id, err)
	}
	return &account
}
