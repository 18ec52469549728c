// Package server wires services and handlers into the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "tally/internal/docs" // registers the swagger document
	"tally/internal/events"
	"tally/internal/handlers"
	"tally/internal/middleware"
	"tally/internal/services"
	"tally/internal/validator"
)

func init() {
	// Money is a JSON number on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// Services bundles every ledger service over one store.
type Services struct {
	DB           *gorm.DB
	Settings     services.SettingsServicer
	Logs         services.LogServicer
	Accounts     services.AccountServicer
	Transactions services.TransactionServicer
	Categories   services.CategoryServicer
	Budgets      services.BudgetServicer
	Reports      services.ReportServicer
}

// NewServices builds the service graph. A nil publisher disables ledger events.
func NewServices(db *gorm.DB, publisher events.Publisher) *Services {
	logs := services.NewLogService(db)
	settings := services.NewSettingsService(db)
	accounts := services.NewAccountService(db, settings, logs)

	return &Services{
		DB:           db,
		Settings:     settings,
		Logs:         logs,
		Accounts:     accounts,
		Transactions: services.NewTransactionService(db, accounts, publisher, logs),
		Categories:   services.NewCategoryService(db, logs),
		Budgets:      services.NewBudgetService(db, logs),
		Reports:      services.NewReportService(db),
	}
}

// NewRouter builds the gin engine serving the /api/v1 surface.
func NewRouter(svc *Services) *gin.Engine {
	validator.Register()

	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Settings)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Settings)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Settings)
	reportHandler := handlers.NewReportHandler(svc.Reports, svc.Settings)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings)
	logHandler := handlers.NewLogHandler(svc.Logs, svc.Settings)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		sqlDB, err := svc.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/summary", accountHandler.GetAccountSummary)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/statistics", accountHandler.GetAccountStatistics)

	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("/bulk-delete", transactionHandler.BulkDeleteTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/type/:type", categoryHandler.GetCategoriesByType)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.GET("/:id/statistics", categoryHandler.GetCategoryStatistics)

	budgets := v1.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/summary", budgetHandler.GetBudgetSummary)
	budgets.POST("/recompute", budgetHandler.RecomputeAll)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/transactions", budgetHandler.GetBudgetTransactions)
	budgets.POST("/:id/recompute", budgetHandler.RecomputeBudget)

	reports := v1.Group("/reports")
	reports.GET("/income-statement", reportHandler.IncomeStatement)
	reports.GET("/balance-sheet", reportHandler.BalanceSheet)
	reports.GET("/cash-flow", reportHandler.CashFlow)
	reports.GET("/category-analysis", reportHandler.CategoryAnalysis)
	reports.GET("/summary", reportHandler.FinancialSummary)
	reports.GET("/monthly", reportHandler.MonthlyReport)

	settings := v1.Group("/settings")
	settings.GET("", settingsHandler.ListSettings)
	settings.GET("/preferences", settingsHandler.GetPreferences)
	settings.PUT("/:key", settingsHandler.SetSetting)

	logs := v1.Group("/logs")
	logs.GET("", logHandler.ListLogs)
	logs.GET("/levels", logHandler.GetLevelCounts)
	logs.DELETE("", logHandler.PruneLogs)

	return router
}
