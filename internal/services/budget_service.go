package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/store"
	"tally/internal/tz"
)

// budgetTransactionsLimit is how many recent transactions a budget view lists by default.
const budgetTransactionsLimit = 10

var periodWindows = map[models.BudgetPeriod]string{
	models.BudgetPeriodWeekly:  tz.PeriodWeek,
	models.BudgetPeriodMonthly: tz.PeriodMonth,
	models.BudgetPeriodYearly:  tz.PeriodYear,
}

// budgetService handles budget-related business logic.
type budgetService struct {
	db           *gorm.DB
	budgets      *store.Repository[models.Budget]
	categories   *store.Repository[models.Category]
	transactions *store.Repository[models.Transaction]
	logs         LogServicer
	now          func() time.Time
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, logs LogServicer) BudgetServicer {
	return &budgetService{
		db:           db,
		budgets:      store.NewRepository[models.Budget](db),
		categories:   store.NewRepository[models.Category](db),
		transactions: store.NewRepository[models.Transaction](db),
		logs:         logs,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateBudget creates a budget for the current period instance. An active
// budget for the same category and period is returned unchanged instead.
func (s *budgetService) CreateBudget(categoryID string, amount decimal.Decimal, period models.BudgetPeriod) (*BudgetView, error) {
	if !period.Valid() {
		return nil, apperrors.ErrInvalidBudgetPeriod
	}
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	category, err := s.categories.First(store.Filter{store.Eq("id", categoryID), store.IsFalse("is_deleted")})
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperrors.ErrCategoryNotFound
	}

	existing, err := s.budgets.First(store.Filter{
		store.Eq("category_id", categoryID),
		store.Eq("period", period),
		store.IsTrue("is_active"),
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		view, err := s.view(existing)
		if err != nil {
			return nil, err
		}
		view.Existing = true
		return view, nil
	}

	start, end, err := tz.PeriodWindow(periodWindows[period], s.now())
	if err != nil {
		return nil, err
	}

	budget := &models.Budget{
		CategoryID: categoryID,
		Amount:     models.RoundMoney(amount),
		Period:     period,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}
	spent, err := s.ComputeSpent(budget)
	if err != nil {
		return nil, err
	}
	budget.Spent = spent

	if err := s.budgets.Create(budget); err != nil {
		return nil, err
	}

	s.logs.Record(models.LogLevelSuccess, LogCategoryBudgets, "Budget created", map[string]interface{}{
		"budget_id":   budget.ID,
		"category_id": categoryID,
		"category":    category.Name,
		"amount":      budget.Amount.StringFixed(models.MoneyPlaces),
		"period":      period,
	})
	return s.view(budget)
}

// GetBudget retrieves an active budget with its derived fields.
func (s *budgetService) GetBudget(budgetID string) (*BudgetView, error) {
	budget, err := s.getActive(budgetID)
	if err != nil {
		return nil, err
	}
	return s.view(budget)
}

// ListBudgets retrieves active budgets, optionally only those whose window
// overlaps [from, to].
func (s *budgetService) ListBudgets(page pagination.PageRequest, from, to *time.Time) (*pagination.PageResponse[BudgetView], error) {
	f := store.Filter{store.IsTrue("is_active"), store.Overlaps("start_date", "end_date", from, to)}
	result, err := s.budgets.ListPage(f, page, "start_date DESC")
	if err != nil {
		return nil, err
	}

	views := make([]BudgetView, 0, len(result.Items))
	for i := range result.Items {
		view, err := s.view(&result.Items[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	out := pagination.NewPageResponse(views, result.Page, result.PageSize, result.Total)
	return &out, nil
}

// UpdateBudget changes the amount or window of a budget and recomputes its
// spent total when either changed.
func (s *budgetService) UpdateBudget(budgetID string, fields BudgetUpdateFields) (*BudgetView, error) {
	budget, err := s.getActive(budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Amount != nil {
		if !fields.Amount.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		budget.Amount = models.RoundMoney(*fields.Amount)
		updates["amount"] = budget.Amount
	}
	if fields.StartDate != nil {
		budget.StartDate = fields.StartDate.UTC()
		updates["start_date"] = budget.StartDate
	}
	if fields.EndDate != nil {
		budget.EndDate = fields.EndDate.UTC()
		updates["end_date"] = budget.EndDate
	}
	if budget.EndDate.Before(budget.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must not be before start_date")
	}

	if len(updates) == 0 {
		return s.view(budget)
	}

	spent, err := s.ComputeSpent(budget)
	if err != nil {
		return nil, err
	}
	budget.Spent = spent
	updates["spent"] = spent

	if _, err := s.budgets.Update(budgetID, updates); err != nil {
		return nil, err
	}

	s.logs.Record(models.LogLevelInfo, LogCategoryBudgets, "Budget updated", map[string]interface{}{
		"budget_id": budgetID,
		"amount":    budget.Amount.StringFixed(models.MoneyPlaces),
		"spent":     spent.StringFixed(models.MoneyPlaces),
	})
	return s.GetBudget(budgetID)
}

// DeleteBudget deactivates a budget.
func (s *budgetService) DeleteBudget(budgetID string) error {
	found, err := s.budgets.UpdateWhere(
		store.Filter{store.Eq("id", budgetID), store.IsTrue("is_active")},
		map[string]interface{}{"is_active": false},
	)
	if err != nil {
		return err
	}
	if found == 0 {
		return apperrors.ErrBudgetNotFound
	}

	s.logs.Record(models.LogLevelInfo, LogCategoryBudgets, "Budget deleted", map[string]interface{}{
		"budget_id": budgetID,
	})
	return nil
}

// GetBudgetTransactions returns the most recent transactions inside the
// budget's window for its category, regardless of type.
func (s *budgetService) GetBudgetTransactions(budgetID string, limit int) ([]models.Transaction, error) {
	budget, err := s.getActive(budgetID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = budgetTransactionsLimit
	}

	return s.transactions.FindN(s.windowFilter(budget), "date DESC", limit)
}

// ComputeSpent sums the spending transactions of the budget's category
// dated within its window.
func (s *budgetService) ComputeSpent(budget *models.Budget) (decimal.Decimal, error) {
	f := s.windowFilter(budget).And(store.In("type", models.SpendingTypes))
	return s.transactions.Sum("amount", f)
}

// RecomputeBudget refreshes the cached spent total of one budget.
func (s *budgetService) RecomputeBudget(budgetID string) (*RecomputeResult, error) {
	budget, err := s.getActive(budgetID)
	if err != nil {
		return nil, err
	}
	return s.recompute(budget, true)
}

// RecomputeAll refreshes every active budget, writing only those whose
// spent total changed. Failures are counted and skipped.
func (s *budgetService) RecomputeAll() (*RecomputeAllResult, error) {
	budgets, err := s.budgets.Find(store.Filter{store.IsTrue("is_active")}, "start_date ASC")
	if err != nil {
		return nil, err
	}

	result := &RecomputeAllResult{Updated: []RecomputeResult{}, Checked: len(budgets)}
	for i := range budgets {
		r, err := s.recompute(&budgets[i], false)
		if err != nil {
			logger.Get().Errorw("failed to recompute budget", "error", err, "budget_id", budgets[i].ID)
			result.Failed++
			continue
		}
		if !r.Difference.IsZero() {
			result.Updated = append(result.Updated, *r)
		}
	}

	if len(result.Updated) > 0 || result.Failed > 0 {
		s.logs.Record(models.LogLevelInfo, LogCategoryBudgets, "Budgets recalculated", map[string]interface{}{
			"checked": result.Checked,
			"updated": len(result.Updated),
			"failed":  result.Failed,
		})
	}
	return result, nil
}

// RecomputeForCategory refreshes the active budgets of a category whose
// window contains at and returns how many were checked.
func (s *budgetService) RecomputeForCategory(categoryID string, at time.Time) (int, error) {
	if categoryID == "" {
		return 0, nil
	}
	at = at.UTC()
	budgets, err := s.budgets.Find(store.Filter{
		store.Eq("category_id", categoryID),
		store.IsTrue("is_active"),
		store.Overlaps("start_date", "end_date", &at, &at),
	}, "")
	if err != nil {
		return 0, err
	}

	for i := range budgets {
		if _, err := s.recompute(&budgets[i], false); err != nil {
			return i, err
		}
	}
	return len(budgets), nil
}

// GetBudgetSummary aggregates every active budget.
func (s *budgetService) GetBudgetSummary() (*BudgetSummary, error) {
	budgets, err := s.budgets.Find(store.Filter{store.IsTrue("is_active")}, "")
	if err != nil {
		return nil, err
	}

	summary := &BudgetSummary{
		TotalBudget:     decimal.Zero,
		TotalSpent:      decimal.Zero,
		AverageProgress: decimal.Zero,
		StatusCounts: map[models.BudgetStatus]int{
			models.BudgetStatusOnTrack:  0,
			models.BudgetStatusWarning:  0,
			models.BudgetStatusCritical: 0,
			models.BudgetStatusExceeded: 0,
		},
		ActiveBudgets: len(budgets),
	}
	for i := range budgets {
		summary.TotalBudget = summary.TotalBudget.Add(budgets[i].Amount)
		summary.TotalSpent = summary.TotalSpent.Add(budgets[i].Spent)
		summary.StatusCounts[budgets[i].Status()]++
	}
	summary.Remaining = summary.TotalBudget.Sub(summary.TotalSpent)
	if summary.TotalBudget.IsPositive() {
		summary.AverageProgress = summary.TotalSpent.Div(summary.TotalBudget).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return summary, nil
}

func (s *budgetService) getActive(budgetID string) (*models.Budget, error) {
	budget, err := s.budgets.First(store.Filter{store.Eq("id", budgetID), store.IsTrue("is_active")})
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, apperrors.ErrBudgetNotFound
	}
	return budget, nil
}

func (s *budgetService) windowFilter(budget *models.Budget) store.Filter {
	start, end := budget.StartDate.UTC(), budget.EndDate.UTC()
	return store.Filter{
		store.Eq("category_id", budget.CategoryID),
		store.DateRange("date", &start, &end),
	}
}

// recompute recalculates spent and persists it. With force unset the row is
// only written when the value changed.
func (s *budgetService) recompute(budget *models.Budget, force bool) (*RecomputeResult, error) {
	spent, err := s.ComputeSpent(budget)
	if err != nil {
		return nil, err
	}

	result := &RecomputeResult{
		BudgetID:   budget.ID,
		OldSpent:   budget.Spent,
		NewSpent:   spent,
		Difference: spent.Sub(budget.Spent),
	}
	if force || !result.Difference.IsZero() {
		if _, err := s.budgets.Update(budget.ID, map[string]interface{}{"spent": spent}); err != nil {
			return nil, err
		}
		budget.Spent = spent
	}
	return result, nil
}

func (s *budgetService) view(budget *models.Budget) (*BudgetView, error) {
	view := &BudgetView{
		Budget:       *budget,
		CategoryName: "Unknown",
		CategoryType: "unknown",
		Progress:     budget.Progress().Round(2),
		Remaining:    budget.Remaining(),
		Status:       budget.Status(),
	}

	category, err := s.categories.GetByID(budget.CategoryID)
	if err != nil {
		logger.Get().Warnw("failed to resolve budget category", "error", err, "budget_id", budget.ID)
	} else if category == nil {
		logger.Get().Warnw("budget references missing category",
			"budget_id", budget.ID,
			"category_id", budget.CategoryID,
		)
	} else {
		view.CategoryName = category.Name
		view.CategoryType = string(category.Type)
	}

	count, err := s.transactions.Count(s.windowFilter(budget))
	if err != nil {
		return nil, err
	}
	view.TransactionCount = count
	return view, nil
}
