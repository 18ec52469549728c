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

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService  services.AccountServicer
	settingsService services.SettingsServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, settingsService services.SettingsServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, settingsService: settingsService}
}

// CreateAccountRequest represents the request payload for opening an account.
type CreateAccountRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=100"`
	Type        string           `json:"type" binding:"required,account_type"`
	Balance     decimal.Decimal  `json:"balance"`
	Currency    string           `json:"currency" binding:"omitempty,iso4217"`
	Description string           `json:"description" binding:"max=500"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
	DueDate     *string          `json:"due_date"`
}

// UpdateAccountRequest represents the request payload for updating an account.
// Balance is not accepted; only transactions move it.
type UpdateAccountRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Currency    *string          `json:"currency" binding:"omitempty,iso4217"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
	DueDate     *string          `json:"due_date"`
}

// CreateAccount opens a new account.
// @Summary     Create an account
// @Description Open a bank, card, cash, asset or liability account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	dueDate, err := h.parseDueDate(req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.CreateAccount(services.CreateAccountInput{
		Name:        req.Name,
		Type:        models.AccountType(req.Type),
		Balance:     req.Balance,
		Currency:    req.Currency,
		Description: req.Description,
		CreditLimit: req.CreditLimit,
		DueDate:     dueDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, account)
}

// ListAccounts returns active accounts.
// @Summary     List accounts
// @Tags        accounts
// @Produce     json
// @Param       type      query string false "Account type"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {array}  models.Account
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var accountType *models.AccountType
	if v := optionalString(c, "type"); v != nil {
		t := models.AccountType(*v)
		if !t.Valid() {
			respondWithError(c, apperrors.ErrInvalidAccountType)
			return
		}
		accountType = &t
	}

	result, err := h.accountService.ListAccounts(page, accountType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondPage(c, http.StatusOK, result)
}

// GetAccount returns one active account.
// @Summary     Get an account
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, account)
}

// UpdateAccount edits account metadata.
// @Summary     Update an account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to change"
// @Success     200 {object} models.Account
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	dueDate, err := h.parseDueDate(req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.UpdateAccount(id, services.AccountUpdateFields{
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		CreditLimit: req.CreditLimit,
		DueDate:     dueDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, account)
}

// DeleteAccount removes an account, softly when it has history.
// @Summary     Delete an account
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} services.AccountDeleteResult
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.accountService.DeleteAccount(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// GetAccountSummary aggregates balances across active accounts.
// @Summary     Account summary
// @Tags        accounts
// @Produce     json
// @Success     200 {object} services.AccountSummary
// @Router      /accounts/summary [get]
func (h *AccountHandler) GetAccountSummary(c *gin.Context) {
	summary, err := h.accountService.GetAccountSummary()
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, summary)
}

// GetAccountStatistics summarizes an account's transaction history.
// @Summary     Account statistics
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} services.AccountStatistics
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/statistics [get]
func (h *AccountHandler) GetAccountStatistics(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.accountService.GetAccountStatistics(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, stats)
}

func (h *AccountHandler) parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := normalizer(h.settingsService).ParseInstant(*raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid due_date format")
	}
	return &parsed, nil
}
