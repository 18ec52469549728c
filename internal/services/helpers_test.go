package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"tally/internal/events"
	"tally/internal/models"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

type testServices struct {
	logs         LogServicer
	settings     SettingsServicer
	accounts     AccountServicer
	transactions TransactionServicer
	categories   CategoryServicer
	budgets      BudgetServicer
	reports      ReportServicer
	publisher    *recordingPublisher
}

func newTestServices(db *gorm.DB) *testServices {
	logs := NewLogService(db)
	settings := NewSettingsService(db)
	accounts := NewAccountService(db, settings, logs)
	publisher := &recordingPublisher{}
	return &testServices{
		logs:         logs,
		settings:     settings,
		accounts:     accounts,
		transactions: NewTransactionService(db, accounts, publisher, logs),
		categories:   NewCategoryService(db, logs),
		budgets:      NewBudgetService(db, logs),
		reports:      NewReportService(db),
		publisher:    publisher,
	}
}

var errBrokerDown = errors.New("broker down")

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func reloadBudget(t *testing.T, db *gorm.DB, id string) *models.Budget {
	t.Helper()
	var b models.Budget
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload budget %s: %v", id, err)
	}
	return &b
}
