package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	settingsService    services.SettingsServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, settingsService services.SettingsServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, settingsService: settingsService}
}

// CreateTransactionRequest represents the request payload for recording a transaction.
// Date accepts RFC 3339 or a naive timestamp read in the user's timezone.
type CreateTransactionRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type" binding:"required,transaction_type"`
	Description   string          `json:"description" binding:"max=500"`
	Date          string          `json:"date"`
	CategoryID    *string         `json:"category_id" binding:"omitempty,uuid"`
	FromAccountID *string         `json:"from_account_id" binding:"omitempty,uuid"`
	ToAccountID   *string         `json:"to_account_id" binding:"omitempty,uuid"`
	Tags          []string        `json:"tags" binding:"max=20,dive,max=50"`
	IsReconciled  bool            `json:"is_reconciled"`
}

// UpdateTransactionRequest represents the request payload for editing a transaction.
// Amount, type and accounts are accepted only when they repeat the stored values.
type UpdateTransactionRequest struct {
	Description   *string          `json:"description" binding:"omitempty,max=500"`
	Date          *string          `json:"date"`
	CategoryID    *string          `json:"category_id"`
	Tags          *[]string        `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	IsReconciled  *bool            `json:"is_reconciled"`
	Amount        *decimal.Decimal `json:"amount"`
	Type          *string          `json:"type" binding:"omitempty,transaction_type"`
	FromAccountID *string          `json:"from_account_id"`
	ToAccountID   *string          `json:"to_account_id"`
}

// BulkDeleteRequest lists transactions to delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500,dive,uuid"`
}

// CreateTransaction records a transaction and applies its balance effects.
// @Summary     Create a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := normalizer(h.settingsService).ParseInstant(req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
		date = parsed
	}

	transaction, err := h.transactionService.CreateTransaction(services.CreateTransactionInput{
		Amount:        req.Amount,
		Type:          models.TransactionType(req.Type),
		Description:   req.Description,
		Date:          date,
		CategoryID:    req.CategoryID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Tags:          req.Tags,
		IsReconciled:  req.IsReconciled,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, transaction)
}

// ListTransactions returns transactions, newest first.
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Param       type        query string false "Transaction type"
// @Param       category_id query string false "Category ID"
// @Param       account_id  query string false "Account ID (either side)"
// @Param       from_date   query string false "Start date (YYYY-MM-DD or RFC 3339)"
// @Param       to_date     query string false "End date (YYYY-MM-DD or RFC 3339)"
// @Param       min_amount  query string false "Minimum amount"
// @Param       max_amount  query string false "Maximum amount"
// @Param       search      query string false "Search description and tags"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {array}  models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := services.TransactionFilter{
		CategoryID: optionalString(c, "category_id"),
		AccountID:  optionalString(c, "account_id"),
		Search:     c.Query("search"),
	}
	if v := optionalString(c, "type"); v != nil {
		t := models.TransactionType(*v)
		if !t.Valid() {
			respondWithError(c, apperrors.ErrInvalidTransactionType)
			return
		}
		filter.Type = &t
	}
	filter.From, filter.To = normalizer(h.settingsService).DateRange(c.Query("from_date"), c.Query("to_date"))

	if filter.MinAmount, err = parseAmountQuery(c, "min_amount"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.MaxAmount, err = parseAmountQuery(c, "max_amount"); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondPage(c, http.StatusOK, result)
}

// GetTransaction returns one transaction.
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, transaction)
}

// UpdateTransaction edits description, date, category, tags or reconciliation.
// @Summary     Update a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input or immutable field"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	fields := services.TransactionUpdateFields{
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Tags:          req.Tags,
		IsReconciled:  req.IsReconciled,
		Amount:        req.Amount,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
	}
	if req.Type != nil {
		t := models.TransactionType(*req.Type)
		fields.Type = &t
	}
	if req.Date != nil {
		parsed, err := normalizer(h.settingsService).ParseInstant(*req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.Date = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(id, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, transaction)
}

// DeleteTransaction removes a transaction and reverses its balance effects.
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(id); err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// BulkDeleteTransactions deletes each listed transaction independently.
// @Summary     Delete several transactions
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body BulkDeleteRequest true "Transaction IDs"
// @Success     200 {object} services.BulkDeleteResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/bulk-delete [post]
func (h *TransactionHandler) BulkDeleteTransactions(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.transactionService.BulkDeleteTransactions(req.IDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

func parseAmountQuery(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := optionalString(c, key)
	if raw == nil {
		return nil, nil
	}
	amount, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key)
	}
	return &amount, nil
}
