package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService   services.BudgetServicer
	settingsService services.SettingsServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, settingsService services.SettingsServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, settingsService: settingsService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
// The window is the current period containing now.
type CreateBudgetRequest struct {
	CategoryID string          `json:"category_id" binding:"required,uuid"`
	Amount     decimal.Decimal `json:"amount" binding:"gt=0"`
	Period     string          `json:"period" binding:"required,budget_period"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Amount    *decimal.Decimal `json:"amount" binding:"omitempty,gt=0"`
	StartDate *string          `json:"start_date"`
	EndDate   *string          `json:"end_date"`
}

// CreateBudget creates a budget for the current period, or returns the
// active budget that already covers the category and period.
// @Summary     Create a budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} services.BudgetView "Budget created"
// @Success     200 {object} services.BudgetView "Existing budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	view, err := h.budgetService.CreateBudget(req.CategoryID, req.Amount, models.BudgetPeriod(req.Period))
	if err != nil {
		respondWithError(c, err)
		return
	}

	status := http.StatusCreated
	if view.Existing {
		status = http.StatusOK
	}
	respondOK(c, status, view)
}

// ListBudgets returns active budgets, optionally those overlapping a range.
// @Summary     List budgets
// @Tags        budgets
// @Produce     json
// @Param       from_date query string false "Range start"
// @Param       to_date   query string false "Range end"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {array}  services.BudgetView
// @Router      /budgets [get]
func (h *BudgetHandler) ListBudgets(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to := normalizer(h.settingsService).DateRange(c.Query("from_date"), c.Query("to_date"))
	result, err := h.budgetService.ListBudgets(page, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondPage(c, http.StatusOK, result)
}

// GetBudget returns one budget with its progress and status.
// @Summary     Get a budget
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetView
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.budgetService.GetBudget(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, view)
}

// UpdateBudget changes a budget's amount or window and recomputes spent.
// @Summary     Update a budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to change"
// @Success     200 {object} services.BudgetView
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	fields := services.BudgetUpdateFields{Amount: req.Amount}
	n := normalizer(h.settingsService)
	if req.StartDate != nil {
		if fields.StartDate = n.ParseBoundary(*req.StartDate, false); fields.StartDate == nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date"))
			return
		}
	}
	if req.EndDate != nil {
		if fields.EndDate = n.ParseBoundary(*req.EndDate, true); fields.EndDate == nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date"))
			return
		}
	}

	view, err := h.budgetService.UpdateBudget(id, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, view)
}

// DeleteBudget deactivates a budget.
// @Summary     Delete a budget
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(id); err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// GetBudgetTransactions lists the transactions counted against a budget.
// @Summary     Budget transactions
// @Tags        budgets
// @Produce     json
// @Param       id    path  string true  "Budget ID"
// @Param       limit query int    false "Maximum rows (default 10)"
// @Success     200 {array}  models.Transaction
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/transactions [get]
func (h *BudgetHandler) GetBudgetTransactions(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 || limit > 100 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be between 1 and 100"))
			return
		}
	}

	transactions, err := h.budgetService.GetBudgetTransactions(id, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, transactions)
}

// RecomputeBudget recalculates one budget's spent amount.
// @Summary     Recompute a budget
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.RecomputeResult
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/recompute [post]
func (h *BudgetHandler) RecomputeBudget(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.RecomputeBudget(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// RecomputeAll recalculates every active budget.
// @Summary     Recompute all budgets
// @Tags        budgets
// @Produce     json
// @Success     200 {object} services.RecomputeAllResult
// @Router      /budgets/recompute [post]
func (h *BudgetHandler) RecomputeAll(c *gin.Context) {
	result, err := h.budgetService.RecomputeAll()
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// GetBudgetSummary aggregates all active budgets.
// @Summary     Budget summary
// @Tags        budgets
// @Produce     json
// @Success     200 {object} services.BudgetSummary
// @Router      /budgets/summary [get]
func (h *BudgetHandler) GetBudgetSummary(c *gin.Context) {
	summary, err := h.budgetService.GetBudgetSummary()
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, summary)
}
