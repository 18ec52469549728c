package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/services"
	"tally/internal/validator"
)

const (
	testAccountID     = "0190a6b2-0000-7000-8000-000000000001"
	testOtherID       = "0190a6b2-0000-7000-8000-000000000002"
	testCategoryID    = "0190a6b2-0000-7000-8000-000000000003"
	testTransactionID = "0190a6b2-0000-7000-8000-000000000004"
	testBudgetID      = "0190a6b2-0000-7000-8000-000000000005"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	if result["success"] != false {
		t.Errorf("expected success=false, got %v", result["success"])
	}
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func dataObject(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	if result["success"] != true {
		t.Fatalf("expected success=true, got %v", result)
	}
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got %v", result["data"])
	}
	return data
}

// --- mock settings service ---

type mockSettingsService struct {
	getFn         func(key, defaultValue string) (string, error)
	setFn         func(key, value string) (*models.Setting, error)
	allFn         func() (map[string]string, error)
	preferencesFn func() (*services.Preferences, error)
}

func (m *mockSettingsService) Get(key, defaultValue string) (string, error) {
	if m.getFn != nil {
		return m.getFn(key, defaultValue)
	}
	return defaultValue, nil
}

func (m *mockSettingsService) Set(key, value string) (*models.Setting, error) {
	if m.setFn != nil {
		return m.setFn(key, value)
	}
	return &models.Setting{Key: key, Value: value}, nil
}

func (m *mockSettingsService) All() (map[string]string, error) {
	if m.allFn != nil {
		return m.allFn()
	}
	return map[string]string{}, nil
}

func (m *mockSettingsService) Preferences() (*services.Preferences, error) {
	if m.preferencesFn != nil {
		return m.preferencesFn()
	}
	return &services.Preferences{Timezone: "UTC", Currency: "USD", DateFormat: "2006-01-02"}, nil
}

// --- mock log service ---

type mockLogService struct {
	listLogsFn       func(filter services.LogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Log], error)
	getLevelCountsFn func() ([]services.LevelCount, error)
	pruneLogsFn      func(olderThan time.Time) (int64, error)
}

func (m *mockLogService) Record(models.LogLevel, string, string, map[string]interface{}) {}

func (m *mockLogService) ListLogs(filter services.LogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Log], error) {
	if m.listLogsFn != nil {
		return m.listLogsFn(filter, page)
	}
	resp := pagination.NewPageResponse([]models.Log{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockLogService) GetLevelCounts() ([]services.LevelCount, error) {
	if m.getLevelCountsFn != nil {
		return m.getLevelCountsFn()
	}
	return []services.LevelCount{}, nil
}

func (m *mockLogService) PruneLogs(olderThan time.Time) (int64, error) {
	if m.pruneLogsFn != nil {
		return m.pruneLogsFn(olderThan)
	}
	return 0, nil
}

// --- mock account service ---

type mockAccountService struct {
	createAccountFn        func(in services.CreateAccountInput) (*models.Account, error)
	getAccountByIDFn       func(accountID string) (*models.Account, error)
	listAccountsFn         func(page pagination.PageRequest, accountType *models.AccountType) (*pagination.PageResponse[models.Account], error)
	updateAccountFn        func(accountID string, fields services.AccountUpdateFields) (*models.Account, error)
	deleteAccountFn        func(accountID string) (*services.AccountDeleteResult, error)
	getAccountSummaryFn    func() (*services.AccountSummary, error)
	getAccountStatisticsFn func(accountID string) (*services.AccountStatistics, error)
}

func (m *mockAccountService) CreateAccount(in services.CreateAccountInput) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(in)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetAccountByID(accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) ListAccounts(page pagination.PageRequest, accountType *models.AccountType) (*pagination.PageResponse[models.Account], error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn(page, accountType)
	}
	resp := pagination.NewPageResponse([]models.Account{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockAccountService) UpdateAccount(accountID string, fields services.AccountUpdateFields) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(accountID, fields)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) DeleteAccount(accountID string) (*services.AccountDeleteResult, error) {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(accountID)
	}
	return &services.AccountDeleteResult{AccountID: accountID}, nil
}

func (m *mockAccountService) GetAccountSummary() (*services.AccountSummary, error) {
	if m.getAccountSummaryFn != nil {
		return m.getAccountSummaryFn()
	}
	return &services.AccountSummary{}, nil
}

func (m *mockAccountService) GetAccountStatistics(accountID string) (*services.AccountStatistics, error) {
	if m.getAccountStatisticsFn != nil {
		return m.getAccountStatisticsFn(accountID)
	}
	return &services.AccountStatistics{AccountID: accountID}, nil
}

func (m *mockAccountService) AdjustBalance(*gorm.DB, string, decimal.Decimal) error {
	return nil
}

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn      func(in services.CreateTransactionInput) (*models.Transaction, error)
	getTransactionByIDFn     func(transactionID string) (*models.Transaction, error)
	listTransactionsFn       func(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	updateTransactionFn      func(transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error)
	deleteTransactionFn      func(transactionID string) error
	bulkDeleteTransactionsFn func(transactionIDs []string) (*services.BulkDeleteResult, error)
}

func (m *mockTransactionService) CreateTransaction(in services.CreateTransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) ListTransactions(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(filter, page)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockTransactionService) UpdateTransaction(transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(transactionID, fields)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(transactionID)
	}
	return nil
}

func (m *mockTransactionService) BulkDeleteTransactions(transactionIDs []string) (*services.BulkDeleteResult, error) {
	if m.bulkDeleteTransactionsFn != nil {
		return m.bulkDeleteTransactionsFn(transactionIDs)
	}
	return &services.BulkDeleteResult{Deleted: len(transactionIDs), Failed: []string{}}, nil
}

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn        func(in services.CreateCategoryInput) (*models.Category, error)
	getCategoryByIDFn       func(categoryID string) (*models.Category, error)
	listCategoriesFn        func(page pagination.PageRequest, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error)
	getCategoriesByTypeFn   func(categoryType models.CategoryType) ([]services.CategoryWithUsage, error)
	updateCategoryFn        func(categoryID string, fields services.CategoryUpdateFields) (*models.Category, error)
	deleteCategoryFn        func(categoryID string) (*services.CategoryDeleteResult, error)
	getCategoryStatisticsFn func(categoryID string) (*services.CategoryStatistics, error)
}

func (m *mockCategoryService) CreateCategory(in services.CreateCategoryInput) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(in)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) ListCategories(page pagination.PageRequest, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(page, categoryType)
	}
	resp := pagination.NewPageResponse([]models.Category{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoriesByType(categoryType models.CategoryType) ([]services.CategoryWithUsage, error) {
	if m.getCategoriesByTypeFn != nil {
		return m.getCategoriesByTypeFn(categoryType)
	}
	return []services.CategoryWithUsage{}, nil
}

func (m *mockCategoryService) UpdateCategory(categoryID string, fields services.CategoryUpdateFields) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(categoryID, fields)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(categoryID string) (*services.CategoryDeleteResult, error) {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(categoryID)
	}
	return &services.CategoryDeleteResult{CategoryID: categoryID}, nil
}

func (m *mockCategoryService) GetCategoryStatistics(categoryID string) (*services.CategoryStatistics, error) {
	if m.getCategoryStatisticsFn != nil {
		return m.getCategoryStatisticsFn(categoryID)
	}
	return &services.CategoryStatistics{CategoryID: categoryID}, nil
}

func (m *mockCategoryService) SeedDefaults() (int, error) { return 0, nil }

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn          func(categoryID string, amount decimal.Decimal, period models.BudgetPeriod) (*services.BudgetView, error)
	getBudgetFn             func(budgetID string) (*services.BudgetView, error)
	listBudgetsFn           func(page pagination.PageRequest, from, to *time.Time) (*pagination.PageResponse[services.BudgetView], error)
	updateBudgetFn          func(budgetID string, fields services.BudgetUpdateFields) (*services.BudgetView, error)
	deleteBudgetFn          func(budgetID string) error
	getBudgetTransactionsFn func(budgetID string, limit int) ([]models.Transaction, error)
	recomputeBudgetFn       func(budgetID string) (*services.RecomputeResult, error)
	recomputeAllFn          func() (*services.RecomputeAllResult, error)
	getBudgetSummaryFn      func() (*services.BudgetSummary, error)
}

func (m *mockBudgetService) CreateBudget(categoryID string, amount decimal.Decimal, period models.BudgetPeriod) (*services.BudgetView, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(categoryID, amount, period)
	}
	return &services.BudgetView{}, nil
}

func (m *mockBudgetService) GetBudget(budgetID string) (*services.BudgetView, error) {
	if m.getBudgetFn != nil {
		return m.getBudgetFn(budgetID)
	}
	return &services.BudgetView{}, nil
}

func (m *mockBudgetService) ListBudgets(page pagination.PageRequest, from, to *time.Time) (*pagination.PageResponse[services.BudgetView], error) {
	if m.listBudgetsFn != nil {
		return m.listBudgetsFn(page, from, to)
	}
	resp := pagination.NewPageResponse([]services.BudgetView{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockBudgetService) UpdateBudget(budgetID string, fields services.BudgetUpdateFields) (*services.BudgetView, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(budgetID, fields)
	}
	return &services.BudgetView{}, nil
}

func (m *mockBudgetService) DeleteBudget(budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(budgetID)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetTransactions(budgetID string, limit int) ([]models.Transaction, error) {
	if m.getBudgetTransactionsFn != nil {
		return m.getBudgetTransactionsFn(budgetID, limit)
	}
	return []models.Transaction{}, nil
}

func (m *mockBudgetService) ComputeSpent(*models.Budget) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *mockBudgetService) RecomputeBudget(budgetID string) (*services.RecomputeResult, error) {
	if m.recomputeBudgetFn != nil {
		return m.recomputeBudgetFn(budgetID)
	}
	return &services.RecomputeResult{BudgetID: budgetID}, nil
}

func (m *mockBudgetService) RecomputeAll() (*services.RecomputeAllResult, error) {
	if m.recomputeAllFn != nil {
		return m.recomputeAllFn()
	}
	return &services.RecomputeAllResult{Updated: []services.RecomputeResult{}}, nil
}

func (m *mockBudgetService) RecomputeForCategory(string, time.Time) (int, error) {
	return 0, nil
}

func (m *mockBudgetService) GetBudgetSummary() (*services.BudgetSummary, error) {
	if m.getBudgetSummaryFn != nil {
		return m.getBudgetSummaryFn()
	}
	return &services.BudgetSummary{}, nil
}

// --- mock report service ---

type mockReportService struct {
	incomeStatementFn  func(start, end time.Time) (*services.IncomeStatement, error)
	balanceSheetFn     func(asOf time.Time) (*services.BalanceSheet, error)
	cashFlowFn         func(start, end time.Time) (*services.CashFlow, error)
	categoryAnalysisFn func(start, end time.Time) (*services.CategoryAnalysis, error)
	monthlyReportFn    func(year int, month time.Month) (*services.MonthlyReport, error)
}

func (m *mockReportService) IncomeStatement(start, end time.Time) (*services.IncomeStatement, error) {
	if m.incomeStatementFn != nil {
		return m.incomeStatementFn(start, end)
	}
	return &services.IncomeStatement{Start: start, End: end}, nil
}

func (m *mockReportService) BalanceSheet(asOf time.Time) (*services.BalanceSheet, error) {
	if m.balanceSheetFn != nil {
		return m.balanceSheetFn(asOf)
	}
	return &services.BalanceSheet{AsOf: asOf}, nil
}

func (m *mockReportService) CashFlow(start, end time.Time) (*services.CashFlow, error) {
	if m.cashFlowFn != nil {
		return m.cashFlowFn(start, end)
	}
	return &services.CashFlow{Start: start, End: end}, nil
}

func (m *mockReportService) CategoryAnalysis(start, end time.Time) (*services.CategoryAnalysis, error) {
	if m.categoryAnalysisFn != nil {
		return m.categoryAnalysisFn(start, end)
	}
	return &services.CategoryAnalysis{Start: start, End: end}, nil
}

func (m *mockReportService) FinancialSummary(time.Time) (*services.FinancialSummary, error) {
	return &services.FinancialSummary{}, nil
}

func (m *mockReportService) MonthlyReport(year int, month time.Month) (*services.MonthlyReport, error) {
	if m.monthlyReportFn != nil {
		return m.monthlyReportFn(year, month)
	}
	return &services.MonthlyReport{Year: year, Month: int(month)}, nil
}

// verify interface compliance
var (
	_ services.SettingsServicer    = (*mockSettingsService)(nil)
	_ services.LogServicer         = (*mockLogService)(nil)
	_ services.AccountServicer     = (*mockAccountService)(nil)
	_ services.TransactionServicer = (*mockTransactionService)(nil)
	_ services.CategoryServicer    = (*mockCategoryService)(nil)
	_ services.BudgetServicer      = (*mockBudgetService)(nil)
	_ services.ReportServicer      = (*mockReportService)(nil)
)
