package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/tz"
)

// Setting keys understood by the ledger.
const (
	SettingTimezone   = "timezone"
	SettingCurrency   = "currency"
	SettingDateFormat = "date_format"
)

// Preferences is the typed view of the user's settings, resolved once per request.
type Preferences struct {
	Timezone   string         `json:"timezone"`
	Currency   string         `json:"currency"`
	DateFormat string         `json:"date_format"`
	Location   *time.Location `json:"-"`
}

// Normalizer returns a timezone normalizer bound to the preferred zone.
func (p *Preferences) Normalizer() tz.Normalizer {
	return tz.NewNormalizer(p.Location)
}

// SettingsServicer reads and writes user preferences.
type SettingsServicer interface {
	Get(key, defaultValue string) (string, error)
	Set(key, value string) (*models.Setting, error)
	All() (map[string]string, error)
	Preferences() (*Preferences, error)
}

// LogFilter holds optional filter parameters for listing log entries.
type LogFilter struct {
	Level    *models.LogLevel
	Category string
	Search   string
	From     *time.Time
	To       *time.Time
}

// LevelCount is the number of log entries at one level.
type LevelCount struct {
	Level models.LogLevel `json:"level"`
	Count int64           `json:"count"`
}

// LogServicer records and queries the user-visible activity log.
type LogServicer interface {
	Record(level models.LogLevel, category, message string, details map[string]interface{})
	ListLogs(filter LogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Log], error)
	GetLevelCounts() ([]LevelCount, error)
	PruneLogs(olderThan time.Time) (int64, error)
}

// CreateAccountInput carries the fields accepted when opening an account.
type CreateAccountInput struct {
	Name        string
	Type        models.AccountType
	Balance     decimal.Decimal
	Currency    string
	Description string
	CreditLimit *decimal.Decimal
	DueDate     *time.Time
}

// AccountUpdateFields holds optional fields for updating an account.
// Balance is deliberately absent: only transactions move it.
type AccountUpdateFields struct {
	Name        *string
	Description *string
	Currency    *string
	CreditLimit *decimal.Decimal
	DueDate     *time.Time
}

// AccountDeleteResult reports how an account was removed.
type AccountDeleteResult struct {
	AccountID        string `json:"account_id"`
	SoftDeleted      bool   `json:"soft_deleted"`
	TransactionCount int64  `json:"transaction_count"`
}

// TypeTotal aggregates accounts of one type.
type TypeTotal struct {
	Count   int             `json:"count"`
	Balance decimal.Decimal `json:"balance"`
}

// AccountSummary aggregates all active accounts.
type AccountSummary struct {
	TotalAccounts int                              `json:"total_accounts"`
	TotalBalance  decimal.Decimal                  `json:"total_balance"`
	ByType        map[models.AccountType]TypeTotal `json:"by_type"`
	ByCurrency    map[string]decimal.Decimal       `json:"by_currency"`
}

// AccountStatistics summarizes the transaction history of one account.
type AccountStatistics struct {
	AccountID          string          `json:"account_id"`
	TotalTransactions  int64           `json:"total_transactions"`
	TotalInflow        decimal.Decimal `json:"total_inflow"`
	TotalOutflow       decimal.Decimal `json:"total_outflow"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(in CreateAccountInput) (*models.Account, error)
	GetAccountByID(accountID string) (*models.Account, error)
	ListAccounts(page pagination.PageRequest, accountType *models.AccountType) (*pagination.PageResponse[models.Account], error)
	UpdateAccount(accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(accountID string) (*AccountDeleteResult, error)
	GetAccountSummary() (*AccountSummary, error)
	GetAccountStatistics(accountID string) (*AccountStatistics, error)
	AdjustBalance(tx *gorm.DB, accountID string, delta decimal.Decimal) error
}

// CreateTransactionInput carries the fields of a new transaction.
type CreateTransactionInput struct {
	Amount        decimal.Decimal
	Type          models.TransactionType
	Description   string
	Date          time.Time
	CategoryID    *string
	FromAccountID *string
	ToAccountID   *string
	Tags          []string
	IsReconciled  bool
}

// TransactionUpdateFields holds optional fields for updating a transaction.
// Amount, Type and the account ids may only repeat their current values.
// An empty CategoryID clears the category.
type TransactionUpdateFields struct {
	Description   *string
	Date          *time.Time
	CategoryID    *string
	Tags          *[]string
	IsReconciled  *bool
	Amount        *decimal.Decimal
	Type          *models.TransactionType
	FromAccountID *string
	ToAccountID   *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
// AccountID matches either side of a transaction.
type TransactionFilter struct {
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
	From       *time.Time
	To         *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Search     string
}

// BulkDeleteResult reports a best-effort multi-delete.
type BulkDeleteResult struct {
	Deleted int      `json:"deleted"`
	Failed  []string `json:"failed"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(in CreateTransactionInput) (*models.Transaction, error)
	GetTransactionByID(transactionID string) (*models.Transaction, error)
	ListTransactions(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	UpdateTransaction(transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(transactionID string) error
	BulkDeleteTransactions(transactionIDs []string) (*BulkDeleteResult, error)
}

// CreateCategoryInput carries the fields of a new category.
type CreateCategoryInput struct {
	Name        string
	Type        models.CategoryType
	Description string
	Color       string
	Icon        string
}

// CategoryUpdateFields holds optional fields for updating a category.
type CategoryUpdateFields struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
}

// CategoryDeleteResult reports what a category deletion moved.
type CategoryDeleteResult struct {
	CategoryID             string `json:"category_id"`
	DefaultCategoryID      string `json:"default_category_id,omitempty"`
	ReassignedTransactions int64  `json:"reassigned_transactions"`
	ReassignedBudgets      int64  `json:"reassigned_budgets"`
}

// CategoryWithUsage decorates a category with how much it is used.
type CategoryWithUsage struct {
	models.Category
	TransactionCount int64            `json:"transaction_count"`
	BudgetCount      int64            `json:"budget_count"`
	TotalAmount      *decimal.Decimal `json:"total_amount,omitempty"`
}

// MonthlyTotal is one calendar month of activity, keyed YYYY-MM.
type MonthlyTotal struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
	Count  int64           `json:"count"`
}

// CategoryStatistics summarizes a category's transaction history.
type CategoryStatistics struct {
	CategoryID        string          `json:"category_id"`
	MonthlyTotals     []MonthlyTotal  `json:"monthly_totals"`
	AverageAmount     decimal.Decimal `json:"average_amount"`
	MaxAmount         decimal.Decimal `json:"max_amount"`
	MinAmount         decimal.Decimal `json:"min_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalTransactions int64           `json:"total_transactions"`
	ActiveBudgets     int64           `json:"active_budgets"`
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(in CreateCategoryInput) (*models.Category, error)
	GetCategoryByID(categoryID string) (*models.Category, error)
	ListCategories(page pagination.PageRequest, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error)
	GetCategoriesByType(categoryType models.CategoryType) ([]CategoryWithUsage, error)
	UpdateCategory(categoryID string, fields CategoryUpdateFields) (*models.Category, error)
	DeleteCategory(categoryID string) (*CategoryDeleteResult, error)
	GetCategoryStatistics(categoryID string) (*CategoryStatistics, error)
	SeedDefaults() (int, error)
}

// BudgetView is a budget decorated with derived fields for display.
type BudgetView struct {
	models.Budget
	CategoryName     string              `json:"category_name"`
	CategoryType     string              `json:"category_type"`
	Progress         decimal.Decimal     `json:"progress"`
	Remaining        decimal.Decimal     `json:"remaining"`
	Status           models.BudgetStatus `json:"status"`
	TransactionCount int64               `json:"transaction_count"`
	Existing         bool                `json:"existing,omitempty"`
}

// BudgetUpdateFields holds optional fields for updating a budget.
type BudgetUpdateFields struct {
	Amount    *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
}

// RecomputeResult reports a single budget recomputation.
type RecomputeResult struct {
	BudgetID   string          `json:"budget_id"`
	OldSpent   decimal.Decimal `json:"old_spent"`
	NewSpent   decimal.Decimal `json:"new_spent"`
	Difference decimal.Decimal `json:"difference"`
}

// RecomputeAllResult lists budgets whose spent changed and how many failed.
type RecomputeAllResult struct {
	Updated []RecomputeResult `json:"updated"`
	Checked int               `json:"checked"`
	Failed  int               `json:"failed"`
}

// BudgetSummary aggregates all active budgets.
type BudgetSummary struct {
	TotalBudget     decimal.Decimal             `json:"total_budget"`
	TotalSpent      decimal.Decimal             `json:"total_spent"`
	Remaining       decimal.Decimal             `json:"remaining"`
	AverageProgress decimal.Decimal             `json:"average_progress"`
	StatusCounts    map[models.BudgetStatus]int `json:"status_counts"`
	ActiveBudgets   int                         `json:"active_budgets"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(categoryID string, amount decimal.Decimal, period models.BudgetPeriod) (*BudgetView, error)
	GetBudget(budgetID string) (*BudgetView, error)
	ListBudgets(page pagination.PageRequest, from, to *time.Time) (*pagination.PageResponse[BudgetView], error)
	UpdateBudget(budgetID string, fields BudgetUpdateFields) (*BudgetView, error)
	DeleteBudget(budgetID string) error
	GetBudgetTransactions(budgetID string, limit int) ([]models.Transaction, error)
	ComputeSpent(budget *models.Budget) (decimal.Decimal, error)
	RecomputeBudget(budgetID string) (*RecomputeResult, error)
	RecomputeAll() (*RecomputeAllResult, error)
	RecomputeForCategory(categoryID string, at time.Time) (int, error)
	GetBudgetSummary() (*BudgetSummary, error)
}

// CategoryAmount is a total attributed to one category.
type CategoryAmount struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
	Count        int64           `json:"count"`
}

// IncomeStatement partitions income and expenses by category over a range.
type IncomeStatement struct {
	Start        time.Time        `json:"start"`
	End          time.Time        `json:"end"`
	Income       []CategoryAmount `json:"income"`
	Expenses     []CategoryAmount `json:"expenses"`
	TotalIncome  decimal.Decimal  `json:"total_income"`
	TotalExpense decimal.Decimal  `json:"total_expense"`
	NetIncome    decimal.Decimal  `json:"net_income"`
}

// AccountBalance is one account line of a balance sheet.
type AccountBalance struct {
	AccountID string             `json:"account_id"`
	Name      string             `json:"name"`
	Type      models.AccountType `json:"type"`
	Currency  string             `json:"currency"`
	Balance   decimal.Decimal    `json:"balance"`
}

// BalanceSheet lists assets and liabilities as of an instant.
type BalanceSheet struct {
	AsOf             time.Time        `json:"as_of"`
	Assets           []AccountBalance `json:"assets"`
	Liabilities      []AccountBalance `json:"liabilities"`
	TotalAssets      decimal.Decimal  `json:"total_assets"`
	TotalLiabilities decimal.Decimal  `json:"total_liabilities"`
	NetWorth         decimal.Decimal  `json:"net_worth"`
}

// CashFlowDay is one day of a cash-flow series, keyed YYYY-MM-DD in UTC.
type CashFlowDay struct {
	Date    string          `json:"date"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
}

// CashFlow is a daily inflow/outflow series with totals.
type CashFlow struct {
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	Days         []CashFlowDay   `json:"days"`
	TotalInflow  decimal.Decimal `json:"total_inflow"`
	TotalOutflow decimal.Decimal `json:"total_outflow"`
	NetFlow      decimal.Decimal `json:"net_flow"`
}

// CategorySpending aggregates expenses of one category, joined with its active budget.
type CategorySpending struct {
	CategoryID      string           `json:"category_id"`
	CategoryName    string           `json:"category_name"`
	Total           decimal.Decimal  `json:"total"`
	Count           int64            `json:"count"`
	Average         decimal.Decimal  `json:"average"`
	Max             decimal.Decimal  `json:"max"`
	Min             decimal.Decimal  `json:"min"`
	BudgetAmount    *decimal.Decimal `json:"budget_amount,omitempty"`
	BudgetRemaining *decimal.Decimal `json:"budget_remaining,omitempty"`
	BudgetProgress  *decimal.Decimal `json:"budget_progress,omitempty"`
}

// CategoryAnalysis is per-category expense analysis over a range.
type CategoryAnalysis struct {
	Start                time.Time          `json:"start"`
	End                  time.Time          `json:"end"`
	Categories           []CategorySpending `json:"categories"`
	TotalSpent           decimal.Decimal    `json:"total_spent"`
	TotalBudget          decimal.Decimal    `json:"total_budget"`
	CategoriesWithBudget int                `json:"categories_with_budget"`
	CategoriesOverBudget int                `json:"categories_over_budget"`
}

// FinancialSummary is the dashboard snapshot for the current month.
type FinancialSummary struct {
	TotalBalance    decimal.Decimal `json:"total_balance"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	MonthlyExpense  decimal.Decimal `json:"monthly_expense"`
	MonthlySavings  decimal.Decimal `json:"monthly_savings"`
	SavingsRate     decimal.Decimal `json:"savings_rate"`
	TotalBudget     decimal.Decimal `json:"total_budget"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	RemainingBudget decimal.Decimal `json:"remaining_budget"`
}

// DailyTotal is one day of a monthly report.
type DailyTotal struct {
	Day     int             `json:"day"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// MonthlyReport is a day-by-day income/expense breakdown of one month.
type MonthlyReport struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Daily        []DailyTotal    `json:"daily"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Net          decimal.Decimal `json:"net"`
}

// ReportServicer produces read-only financial reports over explicit UTC ranges.
type ReportServicer interface {
	IncomeStatement(start, end time.Time) (*IncomeStatement, error)
	BalanceSheet(asOf time.Time) (*BalanceSheet, error)
	CashFlow(start, end time.Time) (*CashFlow, error)
	CategoryAnalysis(start, end time.Time) (*CategoryAnalysis, error)
	FinancialSummary(now time.Time) (*FinancialSummary, error)
	MonthlyReport(year int, month time.Month) (*MonthlyReport, error)
}
