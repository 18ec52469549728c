package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/store"
)

const (
	unknownCategory       = "Unknown"
	uncategorizedCategory = "Uncategorized"
)

var hundred = decimal.NewFromInt(100)

// reportService produces read-only financial reports.
type reportService struct {
	accounts     *store.Repository[models.Account]
	categories   *store.Repository[models.Category]
	transactions *store.Repository[models.Transaction]
	budgets      *store.Repository[models.Budget]
	now          func() time.Time
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{
		accounts:     store.NewRepository[models.Account](db),
		categories:   store.NewRepository[models.Category](db),
		transactions: store.NewRepository[models.Transaction](db),
		budgets:      store.NewRepository[models.Budget](db),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// IncomeStatement totals income and expenses by category over [start, end].
func (s *reportService) IncomeStatement(start, end time.Time) (*IncomeStatement, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return nil, err
	}

	income, err := s.categoryTotals(models.TransactionTypeIncome, start, end)
	if err != nil {
		return nil, err
	}
	expenses, err := s.categoryTotals(models.TransactionTypeExpense, start, end)
	if err != nil {
		return nil, err
	}

	report := &IncomeStatement{
		Start:        start,
		End:          end,
		Income:       income,
		Expenses:     expenses,
		TotalIncome:  sumAmounts(income),
		TotalExpense: sumAmounts(expenses),
	}
	report.NetIncome = report.TotalIncome.Sub(report.TotalExpense)
	return report, nil
}

// BalanceSheet lists active accounts as of asOf. Balances are reconstructed
// by backing out transactions dated after asOf; a zero or future asOf uses
// the live balances. Liability balances are netted so that an overpaid
// card reduces total liabilities.
func (s *reportService) BalanceSheet(asOf time.Time) (*BalanceSheet, error) {
	now := s.now()
	live := asOf.IsZero() || asOf.After(now)
	if live {
		asOf = now
	}
	asOf = asOf.UTC()

	accounts, err := s.accounts.Find(store.Filter{store.IsTrue("is_active")}, "name ASC")
	if err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		balances[a.ID] = a.Balance
	}

	if !live {
		later, err := s.transactions.Find(store.Filter{store.Where("date > ?", asOf)}, "")
		if err != nil {
			return nil, err
		}
		for i := range later {
			for _, effect := range BalanceEffects(&later[i]) {
				if b, ok := balances[effect.AccountID]; ok {
					balances[effect.AccountID] = b.Sub(effect.Delta)
				}
			}
		}
	}

	sheet := &BalanceSheet{
		AsOf:             asOf,
		Assets:           []AccountBalance{},
		Liabilities:      []AccountBalance{},
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
	}
	for _, a := range accounts {
		line := AccountBalance{
			AccountID: a.ID,
			Name:      a.Name,
			Type:      a.Type,
			Currency:  a.Currency,
			Balance:   balances[a.ID],
		}
		switch {
		case a.Type.IsAsset():
			sheet.Assets = append(sheet.Assets, line)
			sheet.TotalAssets = sheet.TotalAssets.Add(line.Balance)
		case a.Type.IsLiability():
			sheet.Liabilities = append(sheet.Liabilities, line)
			sheet.TotalLiabilities = sheet.TotalLiabilities.Sub(line.Balance)
		}
	}
	sheet.NetWorth = sheet.TotalAssets.Sub(sheet.TotalLiabilities)
	return sheet, nil
}

// CashFlow buckets income and expense by UTC day over [start, end].
// Transfers and other account movements are not cash flow.
func (s *reportService) CashFlow(start, end time.Time) (*CashFlow, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactions.Find(store.Filter{
		store.DateRange("date", &start, &end),
		store.In("type", []models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense}),
	}, "date ASC")
	if err != nil {
		return nil, err
	}

	days := make(map[string]*CashFlowDay)
	var keys []string
	for _, t := range transactions {
		key := t.Date.UTC().Format("2006-01-02")
		day, ok := days[key]
		if !ok {
			day = &CashFlowDay{Date: key, Inflow: decimal.Zero, Outflow: decimal.Zero}
			days[key] = day
			keys = append(keys, key)
		}
		if t.Type == models.TransactionTypeIncome {
			day.Inflow = day.Inflow.Add(t.Amount)
		} else {
			day.Outflow = day.Outflow.Add(t.Amount)
		}
	}
	sort.Strings(keys)

	report := &CashFlow{
		Start:        start,
		End:          end,
		Days:         make([]CashFlowDay, 0, len(keys)),
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
	}
	for _, key := range keys {
		day := days[key]
		day.Net = day.Inflow.Sub(day.Outflow)
		report.Days = append(report.Days, *day)
		report.TotalInflow = report.TotalInflow.Add(day.Inflow)
		report.TotalOutflow = report.TotalOutflow.Add(day.Outflow)
	}
	report.NetFlow = report.TotalInflow.Sub(report.TotalOutflow)
	return report, nil
}

// CategoryAnalysis aggregates expenses per category over [start, end] and
// compares each against the category's active budget.
func (s *reportService) CategoryAnalysis(start, end time.Time) (*CategoryAnalysis, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return nil, err
	}

	groups, err := s.transactions.GroupBy("category_id", "amount", store.Filter{
		store.DateRange("date", &start, &end),
		store.Eq("type", models.TransactionTypeExpense),
	})
	if err != nil {
		return nil, err
	}

	names, err := s.categoryNames(groups)
	if err != nil {
		return nil, err
	}
	budgets, err := s.budgetsFor(groups, start, end)
	if err != nil {
		return nil, err
	}

	report := &CategoryAnalysis{
		Start:       start,
		End:         end,
		Categories:  make([]CategorySpending, 0, len(groups)),
		TotalSpent:  decimal.Zero,
		TotalBudget: decimal.Zero,
	}
	for _, g := range groups {
		id := deref(g.Key)
		line := CategorySpending{
			CategoryID:   id,
			CategoryName: nameFor(names, g.Key),
			Total:        g.Sum,
			Count:        g.Count,
			Average:      decimal.Zero,
			Max:          g.Max,
			Min:          g.Min,
		}
		if g.Count > 0 {
			line.Average = models.RoundMoney(g.Sum.Div(decimal.NewFromInt(g.Count)))
		}

		if budget, ok := budgets[id]; ok && g.Key != nil {
			amount := budget.Amount
			remaining := amount.Sub(g.Sum)
			line.BudgetAmount = &amount
			line.BudgetRemaining = &remaining
			if amount.IsPositive() {
				progress := g.Sum.Div(amount).Mul(hundred).Round(2)
				line.BudgetProgress = &progress
				if progress.GreaterThan(hundred) {
					report.CategoriesOverBudget++
				}
			}
			report.TotalBudget = report.TotalBudget.Add(amount)
			report.CategoriesWithBudget++
		}

		report.TotalSpent = report.TotalSpent.Add(g.Sum)
		report.Categories = append(report.Categories, line)
	}

	sort.SliceStable(report.Categories, func(i, j int) bool {
		return report.Categories[i].Total.GreaterThan(report.Categories[j].Total)
	})
	return report, nil
}

// FinancialSummary is the dashboard snapshot: balances, month-to-date
// income and expense, and active budget totals.
func (s *reportService) FinancialSummary(now time.Time) (*FinancialSummary, error) {
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	totalBalance, err := s.accounts.Sum("balance", store.Filter{store.IsTrue("is_active")})
	if err != nil {
		return nil, err
	}

	monthToDate := store.DateRange("date", &monthStart, nil)
	income, err := s.transactions.Sum("amount", store.Filter{monthToDate, store.Eq("type", models.TransactionTypeIncome)})
	if err != nil {
		return nil, err
	}
	expense, err := s.transactions.Sum("amount", store.Filter{monthToDate, store.Eq("type", models.TransactionTypeExpense)})
	if err != nil {
		return nil, err
	}

	activeBudgets := store.Filter{store.IsTrue("is_active")}
	totalBudget, err := s.budgets.Sum("amount", activeBudgets)
	if err != nil {
		return nil, err
	}
	totalSpent, err := s.budgets.Sum("spent", activeBudgets)
	if err != nil {
		return nil, err
	}

	summary := &FinancialSummary{
		TotalBalance:    totalBalance,
		MonthlyIncome:   income,
		MonthlyExpense:  expense,
		MonthlySavings:  income.Sub(expense),
		SavingsRate:     decimal.Zero,
		TotalBudget:     totalBudget,
		TotalSpent:      totalSpent,
		RemainingBudget: totalBudget.Sub(totalSpent),
	}
	if income.IsPositive() {
		summary.SavingsRate = summary.MonthlySavings.Div(income).Mul(hundred).Round(2)
	}
	return summary, nil
}

// MonthlyReport breaks one calendar month (UTC) into daily income and
// expense totals, with every day of the month present.
func (s *reportService) MonthlyReport(year int, month time.Month) (*MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if year < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be positive")
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := start.AddDate(0, 1, 0)
	end := next.Add(-time.Nanosecond)
	daysInMonth := next.AddDate(0, 0, -1).Day()

	transactions, err := s.transactions.Find(store.Filter{
		store.DateRange("date", &start, &end),
		store.In("type", []models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense}),
	}, "")
	if err != nil {
		return nil, err
	}

	report := &MonthlyReport{
		Year:         year,
		Month:        int(month),
		Daily:        make([]DailyTotal, daysInMonth),
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for i := range report.Daily {
		report.Daily[i] = DailyTotal{Day: i + 1, Income: decimal.Zero, Expense: decimal.Zero}
	}
	for _, t := range transactions {
		day := &report.Daily[t.Date.UTC().Day()-1]
		if t.Type == models.TransactionTypeIncome {
			day.Income = day.Income.Add(t.Amount)
			report.TotalIncome = report.TotalIncome.Add(t.Amount)
		} else {
			day.Expense = day.Expense.Add(t.Amount)
			report.TotalExpense = report.TotalExpense.Add(t.Amount)
		}
	}
	report.Net = report.TotalIncome.Sub(report.TotalExpense)
	return report, nil
}

func (s *reportService) categoryTotals(transactionType models.TransactionType, start, end time.Time) ([]CategoryAmount, error) {
	groups, err := s.transactions.GroupBy("category_id", "amount", store.Filter{
		store.DateRange("date", &start, &end),
		store.Eq("type", transactionType),
	})
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(groups)
	if err != nil {
		return nil, err
	}

	out := make([]CategoryAmount, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategoryAmount{
			CategoryID:   deref(g.Key),
			CategoryName: nameFor(names, g.Key),
			Amount:       g.Sum,
			Count:        g.Count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.GreaterThan(out[j].Amount) })
	return out, nil
}

// categoryNames resolves the names of every grouped category, including
// deleted ones. Missing categories are left out of the map.
func (s *reportService) categoryNames(groups []store.Group) (map[string]string, error) {
	ids := groupKeys(groups)
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	categories, err := s.categories.Find(store.Filter{store.In("id", ids)}, "")
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			logger.Get().Warnw("report references missing category", "category_id", id)
		}
	}
	return names, nil
}

// budgetsFor returns one active budget per grouped category, preferring
// the most recent budget whose window overlaps [start, end].
func (s *reportService) budgetsFor(groups []store.Group, start, end time.Time) (map[string]models.Budget, error) {
	ids := groupKeys(groups)
	out := make(map[string]models.Budget, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	budgets, err := s.budgets.Find(store.Filter{store.In("category_id", ids), store.IsTrue("is_active")}, "start_date DESC")
	if err != nil {
		return nil, err
	}
	for _, b := range budgets {
		overlaps := !b.StartDate.After(end) && !b.EndDate.Before(start)
		current, seen := out[b.CategoryID]
		currentOverlaps := seen && !current.StartDate.After(end) && !current.EndDate.Before(start)
		if !seen || (overlaps && !currentOverlaps) {
			out[b.CategoryID] = b
		}
	}
	return out, nil
}

func checkRange(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return start, end, apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end dates are required")
	}
	start, end = start.UTC(), end.UTC()
	if end.Before(start) {
		return start, end, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}
	return start, end, nil
}

func sumAmounts(lines []CategoryAmount) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

func groupKeys(groups []store.Group) []string {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.Key != nil {
			ids = append(ids, *g.Key)
		}
	}
	return ids
}

func nameFor(names map[string]string, key *string) string {
	if key == nil {
		return uncategorizedCategory
	}
	if name, ok := names[*key]; ok {
		return name
	}
	return unknownCategory
}
