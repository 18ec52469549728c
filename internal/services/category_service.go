package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/store"
)

// statisticsMonths caps the monthly series returned by GetCategoryStatistics.
const statisticsMonths = 12

// categoryService handles category-related business logic.
type categoryService struct {
	db           *gorm.DB
	categories   *store.Repository[models.Category]
	transactions *store.Repository[models.Transaction]
	budgets      *store.Repository[models.Budget]
	logs         LogServicer
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, logs LogServicer) CategoryServicer {
	return &categoryService{
		db:           db,
		categories:   store.NewRepository[models.Category](db),
		transactions: store.NewRepository[models.Transaction](db),
		budgets:      store.NewRepository[models.Budget](db),
		logs:         logs,
	}
}

// CreateCategory creates a new user category. Names are unique among
// non-deleted categories.
func (s *categoryService) CreateCategory(in CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !in.Type.Valid() {
		return nil, apperrors.ErrInvalidCategoryType
	}
	if err := s.ensureNameFree(name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        name,
		Type:        in.Type,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
	}
	if err := s.categories.Create(category); err != nil {
		return nil, err
	}

	s.logs.Record(models.LogLevelSuccess, LogCategoryCategories, "Category created", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
		"type":        category.Type,
	})
	return category, nil
}

// GetCategoryByID retrieves a non-deleted category by ID.
func (s *categoryService) GetCategoryByID(categoryID string) (*models.Category, error) {
	category, err := s.categories.First(store.Filter{store.Eq("id", categoryID), store.IsFalse("is_deleted")})
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperrors.ErrCategoryNotFound
	}
	return category, nil
}

// ListCategories retrieves a paginated list of non-deleted categories.
func (s *categoryService) ListCategories(page pagination.PageRequest, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error) {
	f := store.Filter{store.IsFalse("is_deleted")}
	if categoryType != nil {
		if !categoryType.Valid() {
			return nil, apperrors.ErrInvalidCategoryType
		}
		f = f.And(store.Eq("type", *categoryType))
	}
	return s.categories.ListPage(f, page, "type ASC, name ASC")
}

// GetCategoriesByType returns the categories of one type sorted by name,
// each decorated with its usage.
func (s *categoryService) GetCategoriesByType(categoryType models.CategoryType) ([]CategoryWithUsage, error) {
	if !categoryType.Valid() {
		return nil, apperrors.ErrInvalidCategoryType
	}

	categories, err := s.categories.Find(store.Filter{store.Eq("type", categoryType), store.IsFalse("is_deleted")}, "name ASC")
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return []CategoryWithUsage{}, nil
	}

	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}

	txGroups, err := s.transactions.GroupBy("category_id", "amount", store.Filter{store.In("category_id", ids)})
	if err != nil {
		return nil, err
	}
	budgetGroups, err := s.budgets.GroupBy("category_id", "amount", store.Filter{store.In("category_id", ids), store.IsTrue("is_active")})
	if err != nil {
		return nil, err
	}
	txByCategory := groupsByKey(txGroups)
	budgetsByCategory := groupsByKey(budgetGroups)

	out := make([]CategoryWithUsage, len(categories))
	for i, c := range categories {
		usage := CategoryWithUsage{
			Category:         c,
			TransactionCount: txByCategory[c.ID].Count,
			BudgetCount:      budgetsByCategory[c.ID].Count,
		}
		if c.Type.TracksAmount() {
			total := txByCategory[c.ID].Sum
			usage.TotalAmount = &total
		}
		out[i] = usage
	}
	return out, nil
}

// UpdateCategory updates a user category. Default categories are protected.
func (s *categoryService) UpdateCategory(categoryID string, fields CategoryUpdateFields) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsDefault {
		return nil, apperrors.ErrDefaultCategoryProtected
	}

	updates := make(map[string]interface{})

	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		if name != category.Name {
			if err := s.ensureNameFree(name, category.ID); err != nil {
				return nil, err
			}
			updates["name"] = name
		}
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}
	if fields.Icon != nil {
		updates["icon"] = *fields.Icon
	}

	if len(updates) > 0 {
		if _, err := s.categories.Update(categoryID, updates); err != nil {
			return nil, err
		}
	}
	return s.GetCategoryByID(categoryID)
}

// DeleteCategory soft-deletes a category. Its transactions and active budgets
// are first moved to the default category of the same type, all in one
// database transaction.
func (s *categoryService) DeleteCategory(categoryID string) (*CategoryDeleteResult, error) {
	result := &CategoryDeleteResult{CategoryID: categoryID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		categories := s.categories.WithTx(tx)
		transactions := s.transactions.WithTx(tx)
		budgets := s.budgets.WithTx(tx)

		category, err := categories.First(store.Filter{store.Eq("id", categoryID), store.IsFalse("is_deleted")})
		if err != nil {
			return err
		}
		if category == nil {
			return apperrors.ErrCategoryNotFound
		}
		if category.IsDefault {
			return apperrors.ErrDefaultCategoryProtected
		}

		byCategory := store.Filter{store.Eq("category_id", categoryID)}
		activeBudgets := byCategory.And(store.IsTrue("is_active"))

		txCount, err := transactions.Count(byCategory)
		if err != nil {
			return err
		}
		budgetCount, err := budgets.Count(activeBudgets)
		if err != nil {
			return err
		}

		if txCount > 0 || budgetCount > 0 {
			fallback, err := categories.First(store.Filter{
				store.Eq("type", category.Type),
				store.IsTrue("is_default"),
				store.IsFalse("is_deleted"),
				store.Where("id <> ?", categoryID),
			})
			if err != nil {
				return err
			}

			if fallback == nil {
				logger.Get().Warnw("no default category to reassign to",
					"category_id", categoryID,
					"type", category.Type,
					"transactions", txCount,
					"budgets", budgetCount,
				)
			} else {
				moved, err := transactions.UpdateWhere(byCategory, map[string]interface{}{"category_id": fallback.ID})
				if err != nil {
					return err
				}
				movedBudgets, err := budgets.UpdateWhere(activeBudgets, map[string]interface{}{"category_id": fallback.ID})
				if err != nil {
					return err
				}
				result.DefaultCategoryID = fallback.ID
				result.ReassignedTransactions = moved
				result.ReassignedBudgets = movedBudgets
			}
		}

		_, err = categories.Update(categoryID, map[string]interface{}{"is_deleted": true})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logs.Record(models.LogLevelInfo, LogCategoryCategories, "Category deleted", map[string]interface{}{
		"category_id":             categoryID,
		"default_category_id":     result.DefaultCategoryID,
		"reassigned_transactions": result.ReassignedTransactions,
		"reassigned_budgets":      result.ReassignedBudgets,
	})
	return result, nil
}

// GetCategoryStatistics summarizes the transaction history of a category.
func (s *categoryService) GetCategoryStatistics(categoryID string) (*CategoryStatistics, error) {
	if _, err := s.GetCategoryByID(categoryID); err != nil {
		return nil, err
	}

	transactions, err := s.transactions.Find(store.Filter{store.Eq("category_id", categoryID)}, "date DESC")
	if err != nil {
		return nil, err
	}
	activeBudgets, err := s.budgets.Count(store.Filter{store.Eq("category_id", categoryID), store.IsTrue("is_active")})
	if err != nil {
		return nil, err
	}

	stats := &CategoryStatistics{
		CategoryID:        categoryID,
		MonthlyTotals:     []MonthlyTotal{},
		AverageAmount:     decimal.Zero,
		MaxAmount:         decimal.Zero,
		MinAmount:         decimal.Zero,
		TotalAmount:       decimal.Zero,
		TotalTransactions: int64(len(transactions)),
		ActiveBudgets:     activeBudgets,
	}
	if len(transactions) == 0 {
		return stats, nil
	}

	months := make(map[string]*MonthlyTotal)
	stats.MaxAmount = transactions[0].Amount
	stats.MinAmount = transactions[0].Amount
	for _, t := range transactions {
		stats.TotalAmount = stats.TotalAmount.Add(t.Amount)
		if t.Amount.GreaterThan(stats.MaxAmount) {
			stats.MaxAmount = t.Amount
		}
		if t.Amount.LessThan(stats.MinAmount) {
			stats.MinAmount = t.Amount
		}

		key := t.Date.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthlyTotal{Period: key, Total: decimal.Zero}
			months[key] = m
		}
		m.Total = m.Total.Add(t.Amount)
		m.Count++
	}
	stats.AverageAmount = models.RoundMoney(stats.TotalAmount.Div(decimal.NewFromInt(stats.TotalTransactions)))

	for _, m := range months {
		stats.MonthlyTotals = append(stats.MonthlyTotals, *m)
	}
	sort.Slice(stats.MonthlyTotals, func(i, j int) bool {
		return stats.MonthlyTotals[i].Period > stats.MonthlyTotals[j].Period
	})
	if len(stats.MonthlyTotals) > statisticsMonths {
		stats.MonthlyTotals = stats.MonthlyTotals[:statisticsMonths]
	}
	return stats, nil
}

// SeedDefaults inserts the built-in categories that are missing by name and
// returns how many were created.
func (s *categoryService) SeedDefaults() (int, error) {
	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		categories := s.categories.WithTx(tx)
		for _, seed := range seedCategories {
			exists, err := categories.Exists(store.Filter{store.Eq("name", seed.Name), store.IsFalse("is_deleted")})
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			category := seed
			if err := categories.Create(&category); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		s.logs.Record(models.LogLevelInfo, LogCategorySystem, "Default categories seeded", map[string]interface{}{
			"created": created,
		})
	}
	return created, nil
}

func (s *categoryService) ensureNameFree(name, exceptID string) error {
	f := store.Filter{store.Eq("name", name), store.IsFalse("is_deleted")}
	if exceptID != "" {
		f = f.And(store.Where("id <> ?", exceptID))
	}
	taken, err := s.categories.Exists(f)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.WithMessage(apperrors.ErrDuplicateName, "category name already in use: "+name)
	}
	return nil
}

func groupsByKey(groups []store.Group) map[string]store.Group {
	out := make(map[string]store.Group, len(groups))
	for _, g := range groups {
		if g.Key != nil {
			out[*g.Key] = g
		}
	}
	return out
}
