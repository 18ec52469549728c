package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/store"
)

// accountService handles account-related business logic.
type accountService struct {
	db           *gorm.DB
	accounts     *store.Repository[models.Account]
	transactions *store.Repository[models.Transaction]
	settings     SettingsServicer
	logs         LogServicer
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, settings SettingsServicer, logs LogServicer) AccountServicer {
	return &accountService{
		db:           db,
		accounts:     store.NewRepository[models.Account](db),
		transactions: store.NewRepository[models.Transaction](db),
		settings:     settings,
		logs:         logs,
	}
}

// CreateAccount opens a new active account.
func (s *accountService) CreateAccount(in CreateAccountInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if !in.Type.Valid() {
		return nil, apperrors.ErrInvalidAccountType
	}

	if err := s.ensureNameFree(name, ""); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		def, err := s.settings.Get(SettingCurrency, DefaultCurrency)
		if err != nil {
			return nil, err
		}
		currency = def
	}

	account := &models.Account{
		Name:        name,
		Type:        in.Type,
		Balance:     models.RoundMoney(in.Balance),
		Currency:    currency,
		Description: in.Description,
		CreditLimit: in.CreditLimit,
		DueDate:     in.DueDate,
		IsActive:    true,
	}
	if account.DueDate != nil {
		due := account.DueDate.UTC()
		account.DueDate = &due
	}

	if err := s.accounts.Create(account); err != nil {
		return nil, err
	}

	s.logs.Record(models.LogLevelSuccess, LogCategoryAccounts, "Account created", map[string]interface{}{
		"account_id": account.ID,
		"name":       account.Name,
		"type":       account.Type,
	})
	return account, nil
}

// GetAccountByID retrieves an active account by ID.
func (s *accountService) GetAccountByID(accountID string) (*models.Account, error) {
	account, err := s.accounts.First(store.Filter{store.Eq("id", accountID), store.IsTrue("is_active")})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.ErrAccountNotFound
	}
	return account, nil
}

// ListAccounts retrieves a paginated list of active accounts, optionally of one type.
func (s *accountService) ListAccounts(page pagination.PageRequest, accountType *models.AccountType) (*pagination.PageResponse[models.Account], error) {
	f := store.Filter{store.IsTrue("is_active")}
	if accountType != nil {
		if !accountType.Valid() {
			return nil, apperrors.ErrInvalidAccountType
		}
		f = f.And(store.Eq("type", *accountType))
	}
	return s.accounts.ListPage(f, page, "name ASC")
}

// UpdateAccount updates the descriptive fields of an account. The balance is
// only ever moved by transactions.
func (s *accountService) UpdateAccount(accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
		}
		if name != account.Name {
			if err := s.ensureNameFree(name, account.ID); err != nil {
				return nil, err
			}
			updates["name"] = name
		}
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Currency != nil && *fields.Currency != "" {
		updates["currency"] = strings.ToUpper(*fields.Currency)
	}
	if fields.CreditLimit != nil {
		updates["credit_limit"] = models.RoundMoney(*fields.CreditLimit)
	}
	if fields.DueDate != nil {
		updates["due_date"] = fields.DueDate.UTC()
	}

	if len(updates) > 0 {
		if _, err := s.accounts.Update(accountID, updates); err != nil {
			return nil, err
		}
	}

	return s.GetAccountByID(accountID)
}

// DeleteAccount removes an account. Accounts referenced by any transaction
// are deactivated instead so the history stays intact.
func (s *accountService) DeleteAccount(accountID string) (*AccountDeleteResult, error) {
	if _, err := s.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	count, err := s.transactions.Count(store.Filter{store.AnyOf([]string{"from_account_id", "to_account_id"}, accountID)})
	if err != nil {
		return nil, err
	}

	result := &AccountDeleteResult{AccountID: accountID, TransactionCount: count}
	if count > 0 {
		if _, err := s.accounts.Update(accountID, map[string]interface{}{"is_active": false}); err != nil {
			return nil, err
		}
		result.SoftDeleted = true
	} else {
		if _, err := s.accounts.Delete(accountID); err != nil {
			return nil, err
		}
	}

	s.logs.Record(models.LogLevelInfo, LogCategoryAccounts, "Account deleted", map[string]interface{}{
		"account_id":   accountID,
		"soft_deleted": result.SoftDeleted,
	})
	return result, nil
}

// GetAccountSummary aggregates balances of active accounts by type and currency.
func (s *accountService) GetAccountSummary() (*AccountSummary, error) {
	accounts, err := s.accounts.Find(store.Filter{store.IsTrue("is_active")}, "")
	if err != nil {
		return nil, err
	}

	summary := &AccountSummary{
		TotalAccounts: len(accounts),
		TotalBalance:  decimal.Zero,
		ByType:        make(map[models.AccountType]TypeTotal),
		ByCurrency:    make(map[string]decimal.Decimal),
	}
	for _, a := range accounts {
		summary.TotalBalance = summary.TotalBalance.Add(a.Balance)

		bucket := summary.ByType[a.Type]
		bucket.Count++
		bucket.Balance = bucket.Balance.Add(a.Balance)
		summary.ByType[a.Type] = bucket

		summary.ByCurrency[a.Currency] = summary.ByCurrency[a.Currency].Add(a.Balance)
	}
	return summary, nil
}

// GetAccountStatistics summarizes every transaction touching the account.
func (s *accountService) GetAccountStatistics(accountID string) (*AccountStatistics, error) {
	if _, err := s.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	touching := store.Filter{store.AnyOf([]string{"from_account_id", "to_account_id"}, accountID)}
	count, err := s.transactions.Count(touching)
	if err != nil {
		return nil, err
	}
	inflow, err := s.transactions.Sum("amount", store.Filter{store.Eq("to_account_id", accountID)})
	if err != nil {
		return nil, err
	}
	outflow, err := s.transactions.Sum("amount", store.Filter{store.Eq("from_account_id", accountID)})
	if err != nil {
		return nil, err
	}
	total, err := s.transactions.Sum("amount", touching)
	if err != nil {
		return nil, err
	}

	stats := &AccountStatistics{
		AccountID:          accountID,
		TotalTransactions:  count,
		TotalInflow:        inflow,
		TotalOutflow:       outflow,
		AverageTransaction: decimal.Zero,
	}
	if count > 0 {
		stats.AverageTransaction = models.RoundMoney(total.Div(decimal.NewFromInt(count)))
	}
	return stats, nil
}

// AdjustBalance adds delta to the account balance inside tx with a single
// atomic increment, so concurrent adjustments never lose an update.
func (s *accountService) AdjustBalance(tx *gorm.DB, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	res := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", gorm.Expr("balance + ?", models.RoundMoney(delta)))
	if res.Error != nil {
		logger.Get().Errorw("failed to adjust account balance",
			"error", res.Error,
			"account_id", accountID,
			"delta", delta.String(),
		)
		return apperrors.FromStore(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

func (s *accountService) ensureNameFree(name, exceptID string) error {
	f := store.Filter{store.Eq("name", name), store.IsTrue("is_active")}
	if exceptID != "" {
		f = f.And(store.Where("id <> ?", exceptID))
	}
	taken, err := s.accounts.Exists(f)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.WithMessage(apperrors.ErrDuplicateName, "account name already in use: "+name)
	}
	return nil
}
