package services

import "tally/internal/models"

func seed(name string, t models.CategoryType, isDefault bool, description string) models.Category {
	return models.Category{Name: name, Type: t, IsDefault: isDefault, Description: description}
}

var seedCategories = []models.Category{
	seed("Uncategorized Expense", models.CategoryTypeExpense, true, "Default category for uncategorized expenses"),
	seed("Food & Dining", models.CategoryTypeExpense, false, "Restaurants, groceries, food delivery"),
	seed("Transportation", models.CategoryTypeExpense, false, "Fuel, public transport, parking, vehicle maintenance"),
	seed("Utilities", models.CategoryTypeExpense, false, "Electricity, water, gas, internet, phone"),
	seed("Entertainment", models.CategoryTypeExpense, false, "Movies, games, concerts, hobbies"),
	seed("Shopping", models.CategoryTypeExpense, false, "Clothing, electronics, home goods"),
	seed("Healthcare", models.CategoryTypeExpense, false, "Doctor visits, medication, fitness"),
	seed("Housing", models.CategoryTypeExpense, false, "Rent, mortgage, property maintenance"),
	seed("Travel", models.CategoryTypeExpense, false, "Flights, hotels, activities"),

	seed("Uncategorized Income", models.CategoryTypeIncome, true, "Default category for uncategorized income"),
	seed("Salary", models.CategoryTypeIncome, false, "Wages and bonuses"),
	seed("Freelance", models.CategoryTypeIncome, false, "Contract and consulting work"),
	seed("Investment", models.CategoryTypeIncome, false, "Dividends, interest, capital gains"),
	seed("Refund", models.CategoryTypeIncome, false, "Tax refunds, returns, reimbursements"),

	seed("Uncategorized Asset", models.CategoryTypeAsset, true, "Default category for assets"),
	seed("Stocks", models.CategoryTypeAsset, false, "Equity investments"),
	seed("Real Estate", models.CategoryTypeAsset, false, "Property and land"),
	seed("Vehicle", models.CategoryTypeAsset, false, "Cars and motorcycles"),

	seed("Uncategorized Liability", models.CategoryTypeLiability, true, "Default category for liabilities"),
	seed("Credit Card Bill", models.CategoryTypeLiability, false, "Credit card statement payments"),
	seed("Mortgage", models.CategoryTypeLiability, false, "Home loan payments"),
	seed("Personal Loan", models.CategoryTypeLiability, false, "Loans from individuals or banks"),
}
