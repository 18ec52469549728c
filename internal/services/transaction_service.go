package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/events"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/store"
)

// BalanceEffect is one signed adjustment a transaction applies to an account.
type BalanceEffect struct {
	AccountID string
	Delta     decimal.Decimal
}

// BalanceEffects returns the adjustments t applies when it is recorded.
// Income credits the destination, expense debits the source and every
// other type moves the amount from source to destination.
func BalanceEffects(t *models.Transaction) []BalanceEffect {
	var effects []BalanceEffect
	if t.Type.NeedsSource() && t.FromAccountID != nil {
		effects = append(effects, BalanceEffect{AccountID: *t.FromAccountID, Delta: t.Amount.Neg()})
	}
	if t.Type.NeedsDestination() && t.ToAccountID != nil {
		effects = append(effects, BalanceEffect{AccountID: *t.ToAccountID, Delta: t.Amount})
	}
	return effects
}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db             *gorm.DB
	transactions   *store.Repository[models.Transaction]
	categories     *store.Repository[models.Category]
	accountService AccountServicer
	publisher      events.Publisher
	logs           LogServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, publisher events.Publisher, logs LogServicer) TransactionServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &transactionService{
		db:             db,
		transactions:   store.NewRepository[models.Transaction](db),
		categories:     store.NewRepository[models.Category](db),
		accountService: accountService,
		publisher:      publisher,
		logs:           logs,
	}
}

// CreateTransaction records a transaction and applies its balance effects
// in the same database transaction. Every referenced account and category
// is checked before anything is written.
func (s *transactionService) CreateTransaction(in CreateTransactionInput) (*models.Transaction, error) {
	if !in.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}

	fromID := nonEmpty(in.FromAccountID)
	toID := nonEmpty(in.ToAccountID)
	if !in.Type.NeedsSource() {
		fromID = nil
	}
	if !in.Type.NeedsDestination() {
		toID = nil
	}
	if in.Type.NeedsSource() && fromID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_account_id is required for "+string(in.Type)+" transactions")
	}
	if in.Type.NeedsDestination() && toID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_account_id is required for "+string(in.Type)+" transactions")
	}
	if fromID != nil && toID != nil && *fromID == *toID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	for _, id := range []*string{fromID, toID} {
		if id == nil {
			continue
		}
		if _, err := s.accountService.GetAccountByID(*id); err != nil {
			return nil, err
		}
	}

	categoryID := nonEmpty(in.CategoryID)
	if categoryID != nil {
		if err := s.ensureCategory(*categoryID); err != nil {
			return nil, err
		}
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		Amount:        models.RoundMoney(in.Amount),
		Type:          in.Type,
		Description:   description,
		Date:          date.UTC(),
		CategoryID:    categoryID,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Tags:          models.NewStringList(in.Tags),
		IsReconciled:  in.IsReconciled,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.transactions.WithTx(tx).Create(transaction); err != nil {
			return err
		}
		for _, effect := range BalanceEffects(transaction) {
			if err := s.accountService.AdjustBalance(tx, effect.AccountID, effect.Delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Get().Errorw("failed to create transaction", "error", err, "type", in.Type)
		return nil, err
	}

	s.logs.Record(models.LogLevelSuccess, LogCategoryTransactions, "Transaction created", map[string]interface{}{
		"transaction_id": transaction.ID,
		"type":           transaction.Type,
		"amount":         transaction.Amount.StringFixed(models.MoneyPlaces),
	})
	s.publish(events.LedgerEvent{
		Kind:          events.TransactionCreated,
		TransactionID: transaction.ID,
		CategoryID:    deref(transaction.CategoryID),
		Date:          transaction.Date,
	})
	return transaction, nil
}

// GetTransactionByID retrieves a transaction by ID.
func (s *transactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	transaction, err := s.transactions.GetByID(transactionID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, apperrors.ErrTransactionNotFound
	}
	return transaction, nil
}

// ListTransactions retrieves a paginated, filtered list of transactions, newest first.
func (s *transactionService) ListTransactions(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	f := store.Filter{}
	if filter.Type != nil {
		if !filter.Type.Valid() {
			return nil, apperrors.ErrInvalidTransactionType
		}
		f = f.And(store.Eq("type", *filter.Type))
	}
	if filter.CategoryID != nil {
		f = f.And(store.Eq("category_id", *filter.CategoryID))
	}
	if filter.AccountID != nil {
		f = f.And(store.AnyOf([]string{"from_account_id", "to_account_id"}, *filter.AccountID))
	}
	f = f.And(
		store.DateRange("date", filter.From, filter.To),
		store.AmountRange("amount", filter.MinAmount, filter.MaxAmount),
		store.AnyContains([]string{"description", "tags"}, filter.Search),
	)

	return s.transactions.ListPage(f, page, "date DESC, created_at DESC")
}

// UpdateTransaction edits the descriptive fields of a transaction. Fields
// that determine balance effects can only be resubmitted unchanged.
func (s *transactionService) UpdateTransaction(transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	current, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	if err := checkImmutable(current, fields); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if fields.Description != nil {
		description := strings.TrimSpace(*fields.Description)
		if description == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description cannot be empty")
		}
		updates["description"] = description
	}
	if fields.Date != nil && !fields.Date.IsZero() {
		updates["date"] = fields.Date.UTC()
	}
	if fields.CategoryID != nil {
		if *fields.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			if err := s.ensureCategory(*fields.CategoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = *fields.CategoryID
		}
	}
	if fields.Tags != nil {
		updates["tags"] = models.NewStringList(*fields.Tags)
	}
	if fields.IsReconciled != nil {
		updates["is_reconciled"] = *fields.IsReconciled
	}

	if len(updates) == 0 {
		return current, nil
	}

	if _, err := s.transactions.Update(transactionID, updates); err != nil {
		return nil, err
	}

	updated, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	s.publish(events.LedgerEvent{
		Kind:               events.TransactionUpdated,
		TransactionID:      updated.ID,
		CategoryID:         deref(updated.CategoryID),
		Date:               updated.Date,
		PreviousCategoryID: deref(current.CategoryID),
		PreviousDate:       current.Date,
	})
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effects
// in the same database transaction.
func (s *transactionService) DeleteTransaction(transactionID string) error {
	var deleted *models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.transactions.WithTx(tx)
		transaction, err := repo.GetByID(transactionID)
		if err != nil {
			return err
		}
		if transaction == nil {
			return apperrors.ErrTransactionNotFound
		}

		for _, effect := range BalanceEffects(transaction) {
			err := s.accountService.AdjustBalance(tx, effect.AccountID, effect.Delta.Neg())
			if errors.Is(err, apperrors.ErrAccountNotFound) {
				logger.Get().Warnw("account missing while reversing transaction",
					"transaction_id", transaction.ID,
					"account_id", effect.AccountID,
				)
				continue
			}
			if err != nil {
				return err
			}
		}

		if _, err := repo.Delete(transaction.ID); err != nil {
			return err
		}
		deleted = transaction
		return nil
	})
	if err != nil {
		return err
	}

	s.logs.Record(models.LogLevelInfo, LogCategoryTransactions, "Transaction deleted", map[string]interface{}{
		"transaction_id": deleted.ID,
		"type":           deleted.Type,
		"amount":         deleted.Amount.StringFixed(models.MoneyPlaces),
	})
	s.publish(events.LedgerEvent{
		Kind:          events.TransactionDeleted,
		TransactionID: deleted.ID,
		CategoryID:    deref(deleted.CategoryID),
		Date:          deleted.Date,
	})
	return nil
}

// BulkDeleteTransactions deletes each transaction independently and reports
// which ids could not be deleted.
func (s *transactionService) BulkDeleteTransactions(transactionIDs []string) (*BulkDeleteResult, error) {
	if len(transactionIDs) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction_ids must not be empty")
	}

	result := &BulkDeleteResult{Failed: []string{}}
	for _, id := range transactionIDs {
		if err := s.DeleteTransaction(id); err != nil {
			logger.Get().Warnw("bulk delete skipped transaction", "transaction_id", id, "error", err)
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Deleted++
	}
	return result, nil
}

func (s *transactionService) ensureCategory(categoryID string) error {
	exists, err := s.categories.Exists(store.Filter{store.Eq("id", categoryID), store.IsFalse("is_deleted")})
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

func (s *transactionService) publish(event events.LedgerEvent) {
	event.OccurredAt = time.Now().UTC()
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		logger.Get().Errorw("failed to publish ledger event",
			"error", err,
			"kind", event.Kind,
			"transaction_id", event.TransactionID,
		)
	}
}

func checkImmutable(current *models.Transaction, fields TransactionUpdateFields) error {
	if fields.Amount != nil && !models.RoundMoney(*fields.Amount).Equal(current.Amount) {
		return apperrors.WithMessage(apperrors.ErrImmutableField, "amount cannot be changed after creation")
	}
	if fields.Type != nil && *fields.Type != current.Type {
		return apperrors.WithMessage(apperrors.ErrImmutableField, "type cannot be changed after creation")
	}
	if fields.FromAccountID != nil && *fields.FromAccountID != deref(current.FromAccountID) {
		return apperrors.WithMessage(apperrors.ErrImmutableField, "from_account_id cannot be changed after creation")
	}
	if fields.ToAccountID != nil && *fields.ToAccountID != deref(current.ToAccountID) {
		return apperrors.WithMessage(apperrors.ErrImmutableField, "to_account_id cannot be changed after creation")
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
