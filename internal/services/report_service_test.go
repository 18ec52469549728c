package services

import (
	"testing"
	"time"

	"tally/internal/models"
	"tally/internal/testutil"
)

func TestIncomeStatement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestServices(db)

	salary := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)
	food := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
	rent := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
	day := marchStart.AddDate(0, 0, 4)

	fixtures := []testutil.TransactionFixture{
		{Type: models.TransactionTypeIncome, Amount: "3000", Date: day, CategoryID: &salary.ID},
		{Type: models.TransactionTypeIncome, Amount: "150", Date: day},
		{Type: models.TransactionTypeExpense, Amount: "40", Date: day, CategoryID: &food.ID},
		{Type: models.TransactionTypeExpense, Amount: "60", Date: day, CategoryID: &food.ID},
		{Type: models.TransactionTypeExpense, Amount: "1200", Date: day, CategoryID: &rent.ID},
		{Type: models.TransactionTypeTransfer, Amount: "500", Date: day},
		{Type: models.TransactionTypeExpense, Amount: "999", Date: marchEnd.AddDate(0, 0, 1), CategoryID: &food.ID},
	}
	for _, f := range fixtures {
		testutil.CreateTestTransaction(t, db, f)
	}

	report, err := svc.reports.IncomeStatement(marchStart, marchEnd)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "total income", report.TotalIncome, "3150")
	testutil.AssertDecimal(t, "total expense", report.TotalExpense, "1300")
	testutil.AssertDecimal(t, "net income", report.NetIncome, "1850")

	if len(report.Expenses) != 2 || report.Expenses[0].CategoryID != rent.ID {
		t.Fatalf("expected rent first, got %+v", report.Expenses)
	}
	testutil.AssertDecimal(t, "food", report.Expenses[1].Amount, "100")
	if report.Expenses[1].Count != 2 || report.Expenses[1].CategoryName != food.Name {
		t.Errorf("unexpected food line %+v", report.Expenses[1])
	}
	if report.Income[1].CategoryName != "Uncategorized" {
		t.Errorf("expected uncategorized income line, got %+v", report.Income[1])
	}

	t.Run("inverted_range", func(t *testing.T) {
		_, err := svc.reports.IncomeStatement(marchEnd, marchStart)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestBalanceSheet(t *testing.T) {
	t.Run("nets_liabilities", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db)

		testutil.CreateTestAccount(t, db, models.AccountTypeBankAccount, "1000")
		testutil.CreateTestAccount(t, db, models.AccountTypeCash, "50")
		testutil.CreateTestAccount(t, db, models.AccountTypeCreditCard, "-300")
		testutil.CreateTestAccount(t, db, models.AccountTypeLiability, "25")

		sheet, err := svc.reports.BalanceSheet(time.Time{})
		testutil.AssertNoError(t, err)

		if len(sheet.Assets) != 2 || len(sheet.Liabilities) != 2 {
			t.Fatalf("unexpected partition %+v", sheet)
		}
		testutil.AssertDecimal(t, "assets", sheet.TotalAssets, "1050")
		// The overpaid liability reduces what is owed.
		testutil.AssertDecimal(t, "liabilities", sheet.TotalLiabilities, "275")
		testutil.AssertDecimal(t, "net worth", sheet.NetWorth, "775")
	})

	t.Run("as_of_replays_later_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db)
		bank := testutil.CreateTestAccount(t, db, models.AccountTypeBankAccount, "0")
		card := testutil.CreateTestAccount(t, db, models.AccountTypeCreditCard, "0")

		record := func(in CreateTransactionInput) {
			_, err := svc.transactions.CreateTransaction(in)
			testutil.AssertNoError(t, err)
		}
		record(CreateTransactionInput{Amount: testutil.Dec("1000"), Type: models.TransactionTypeIncome, Description: "pay",
			Date: marchStart, ToAccountID: &bank.ID})
		record(CreateTransactionInput{Amount: testutil.Dec("200"), Type: models.TransactionTypeExpense, Description: "shoes",
			Date: marchStart.AddDate(0, 0, 2), FromAccountID: &card.ID})
		record(CreateTransactionInput{Amount: testutil.Dec("150"), Type: models.TransactionTypeCreditCardPayment, Description: "card",
			Date: marchStart.AddDate(0, 0, 20), FromAccountID: &bank.ID, ToAccountID: &card.ID})

		live, err := svc.reports.BalanceSheet(time.Time{})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "live assets", live.TotalAssets, "850")
		testutil.AssertDecimal(t, "live liabilities", live.TotalLiabilities, "50")

		past, err := svc.reports.BalanceSheet(marchStart.AddDate(0, 0, 10))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "past assets", past.TotalAssets, "1000")
		testutil.AssertDecimal(t, "past liabilities", past.TotalLiabilities, "200")
		testutil.AssertDecimal(t, "past net worth", past.NetWorth, "800")
	})

	t.Run("default_keeps_post_dated_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestServices(db)
		bank := testutil.CreateTestAccount(t, db, models.AccountTypeBankAccount, "0")

		_, err := svc.transactions.CreateTransaction(CreateTransactionInput{
			Amount: testutil.Dec("100"), Type: models.TransactionTypeIncome, Description: "invoice",
			Date: time.Now().AddDate(0, 0, 3), ToAccountID: &bank.ID,
		})
		testutil.AssertNoError(t, err)

		account, err := svc.accounts.GetAccountByID(bank.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "live balance", account.Balance, "100")

		sheet, err := svc.reports.BalanceSheet(time.Time{})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "default assets", sheet.TotalAssets, "100")

		future, err := svc.reports.BalanceSheet(time.Now().AddDate(1, 0, 0))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "future assets", future.TotalAssets, "100")
	})
}

func TestCashFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestServices(db)

	d1 := time.Date(2024, 3, 3, 23, 30, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 4, 0, 30, 0, 0, time.UTC)
	fixtures := []testutil.TransactionFixture{
		{Type: models.TransactionTypeIncome, Amount: "500", Date: d1},
		{Type: models.TransactionTypeExpense, Amount: "20", Date: d1},
		{Type: models.TransactionTypeExpense, Amount: "80", Date: d2},
		{Type: models.TransactionTypeTransfer, Amount: "300", Date: d2},
		{Type: models.TransactionTypeAssetPurchase, Amount: "300", Date: d2},
	}
	for _, f := range fixtures {
		testutil.CreateTestTransaction(t, db, f)
	}

	report, err := svc.reports.CashFlow(marchStart, marchEnd)
	testutil.AssertNoError(t, err)

	if len(report.Days) != 2 || report.Days[0].Date != "2024-03-03" || report.Days[1].Date != "2024-03-04" {
		t.Fatalf("unexpected days %+v", report.Days)
	}
	testutil.AssertDecimal(t, "day one net", report.Days[0].Net, "480")
	testutil.AssertDecimal(t, "day two outflow", report.Days[1].Outflow, "80")
	testutil.AssertDecimal(t, "total inflow", report.TotalInflow, "500")
	testutil.AssertDecimal(t, "total outflow", report.TotalOutflow, "100")
	testutil.AssertDecimal(t, "net flow", report.NetFlow, "400")
}

func TestCategoryAnalysis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestServices(db)

	food := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
	fun := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
	testutil.CreateTestBudget(t, db, food.ID, "100", marchStart, marchEnd)
	day := marchStart.AddDate(0, 0, 1)

	for _, amount := range []string{"30", "90"} {
		testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{
			Type: models.TransactionTypeExpense, Amount: amount, Date: day, CategoryID: &food.ID,
		})
	}
	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{
		Type: models.TransactionTypeExpense, Amount: "15", Date: day, CategoryID: &fun.ID,
	})
	orphan := "deleted-long-ago"
	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{
		Type: models.TransactionTypeExpense, Amount: "5", Date: day, CategoryID: &orphan,
	})

	report, err := svc.reports.CategoryAnalysis(marchStart, marchEnd)
	testutil.AssertNoError(t, err)

	if len(report.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %+v", report.Categories)
	}
	top := report.Categories[0]
	if top.CategoryID != food.ID {
		t.Fatalf("expected food first, got %+v", top)
	}
	testutil.AssertDecimal(t, "food total", top.Total, "120")
	testutil.AssertDecimal(t, "food average", top.Average, "60")
	testutil.AssertDecimal(t, "food max", top.Max, "90")
	testutil.AssertDecimal(t, "food min", top.Min, "30")
	if top.BudgetRemaining == nil || top.BudgetProgress == nil {
		t.Fatal("expected budget comparison for food")
	}
	testutil.AssertDecimal(t, "food remaining", *top.BudgetRemaining, "-20")
	testutil.AssertDecimal(t, "food progress", *top.BudgetProgress, "120")

	if report.Categories[2].CategoryName != "Unknown" {
		t.Errorf("expected orphaned category to be Unknown, got %+v", report.Categories[2])
	}
	if report.CategoriesWithBudget != 1 || report.CategoriesOverBudget != 1 {
		t.Errorf("unexpected budget counts %+v", report)
	}
	testutil.AssertDecimal(t, "total spent", report.TotalSpent, "140")
	testutil.AssertDecimal(t, "total budget", report.TotalBudget, "100")
}

func TestFinancialSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestServices(db)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	testutil.CreateTestAccount(t, db, models.AccountTypeBankAccount, "2000")
	inactive := testutil.CreateTestAccount(t, db, models.AccountTypeCash, "500")
	db.Model(inactive).Update("is_active", false)

	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{Type: models.TransactionTypeIncome, Amount: "1000", Date: marchStart})
	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{Type: models.TransactionTypeExpense, Amount: "250", Date: now})
	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{Type: models.TransactionTypeExpense, Amount: "75", Date: marchStart.Add(-time.Hour)})

	cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, cat.ID, "400", marchStart, marchEnd)
	db.Model(budget).Update("spent", testutil.Dec("250"))

	summary, err := svc.reports.FinancialSummary(now)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "total balance", summary.TotalBalance, "2000")
	testutil.AssertDecimal(t, "income", summary.MonthlyIncome, "1000")
	testutil.AssertDecimal(t, "expense", summary.MonthlyExpense, "250")
	testutil.AssertDecimal(t, "savings", summary.MonthlySavings, "750")
	testutil.AssertDecimal(t, "savings rate", summary.SavingsRate, "75")
	testutil.AssertDecimal(t, "remaining budget", summary.RemainingBudget, "150")
}

func TestMonthlyReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestServices(db)

	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{
		Type: models.TransactionTypeIncome, Amount: "100", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{
		Type: models.TransactionTypeExpense, Amount: "30", Date: time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
	})
	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{
		Type: models.TransactionTypeTransfer, Amount: "999", Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	testutil.CreateTestTransaction(t, db, testutil.TransactionFixture{
		Type: models.TransactionTypeExpense, Amount: "999", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	report, err := svc.reports.MonthlyReport(2024, time.February)
	testutil.AssertNoError(t, err)

	if len(report.Daily) != 29 {
		t.Fatalf("expected 29 days in February 2024, got %d", len(report.Daily))
	}
	testutil.AssertDecimal(t, "first day income", report.Daily[0].Income, "100")
	testutil.AssertDecimal(t, "last day expense", report.Daily[28].Expense, "30")
	testutil.AssertDecimal(t, "net", report.Net, "70")

	_, err = svc.reports.MonthlyReport(2024, 13)
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}
