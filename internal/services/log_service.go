package services

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/store"
)

// Log categories written by the services.
const (
	LogCategoryTransactions = "transactions"
	LogCategoryBudgets      = "budgets"
	LogCategoryCategories   = "categories"
	LogCategoryAccounts     = "accounts"
	LogCategorySystem       = "system"
)

// logService handles the user-visible activity log.
type logService struct {
	logs *store.Repository[models.Log]
}

// NewLogService creates a new LogServicer.
func NewLogService(db *gorm.DB) LogServicer {
	return &logService{logs: store.NewRepository[models.Log](db)}
}

// Record writes a log entry. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *logService) Record(level models.LogLevel, category, message string, details map[string]interface{}) {
	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Get().Errorw("failed to marshal log details", "error", err, "category", category)
			detailsJSON = "{}"
		} else {
			detailsJSON = string(data)
		}
	}

	entry := &models.Log{
		Level:    level,
		Category: category,
		Message:  message,
		Details:  detailsJSON,
	}

	if err := s.logs.Create(entry); err != nil {
		logger.Get().Errorw("failed to create log entry",
			"error", err,
			"level", level,
			"category", category,
			"message", message,
		)
	}
}

// ListLogs returns log entries newest first. Search matches the message or the details.
func (s *logService) ListLogs(filter LogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Log], error) {
	f := store.Filter{}
	if filter.Level != nil {
		if !filter.Level.Valid() {
			return nil, apperrors.ErrInvalidLogLevel
		}
		f = f.And(store.Eq("level", *filter.Level))
	}
	if filter.Category != "" {
		f = f.And(store.Eq("category", filter.Category))
	}
	f = f.And(
		store.AnyContains([]string{"message", "details"}, filter.Search),
		store.DateRange("timestamp", filter.From, filter.To),
	)

	return s.logs.ListPage(f, page, "timestamp DESC")
}

// GetLevelCounts returns how many entries exist at each level.
func (s *logService) GetLevelCounts() ([]LevelCount, error) {
	groups, err := s.logs.GroupBy("level", "0", nil)
	if err != nil {
		return nil, err
	}

	counts := make([]LevelCount, 0, len(groups))
	for _, g := range groups {
		if g.Key == nil {
			continue
		}
		counts = append(counts, LevelCount{Level: models.LogLevel(*g.Key), Count: g.Count})
	}
	return counts, nil
}

// PruneLogs deletes entries older than the cutoff and returns how many went.
func (s *logService) PruneLogs(olderThan time.Time) (int64, error) {
	n, err := s.logs.DeleteWhere(store.Filter{store.Where("timestamp < ?", olderThan.UTC())})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Get().Infow("pruned log entries", "count", n, "older_than", olderThan.UTC())
	}
	return n, nil
}
