// Package worker keeps derived budget state fresh in the background.
package worker

import (
	"context"
	"fmt"
	"time"

	"tally/internal/events"
	"tally/internal/logger"
	"tally/internal/services"
)

// Worker reacts to ledger events and runs the periodic maintenance sweep.
type Worker struct {
	budgets   services.BudgetServicer
	logs      services.LogServicer
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// New creates a Worker. interval is the sweep period and retention is how
// long log entries are kept.
func New(budgets services.BudgetServicer, logs services.LogServicer, interval, retention time.Duration) *Worker {
	return &Worker{
		budgets:   budgets,
		logs:      logs,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

// HandleEvent recomputes the budgets whose windows the event touched,
// including the window a transaction was moved out of.
func (w *Worker) HandleEvent(_ context.Context, event events.LedgerEvent) error {
	checked, err := w.budgets.RecomputeForCategory(event.CategoryID, event.Date)
	if err != nil {
		return fmt.Errorf("recompute category %s: %w", event.CategoryID, err)
	}

	moved := event.PreviousCategoryID != "" &&
		(event.PreviousCategoryID != event.CategoryID || !event.PreviousDate.Equal(event.Date))
	if moved {
		date := event.PreviousDate
		if date.IsZero() {
			date = event.Date
		}
		n, err := w.budgets.RecomputeForCategory(event.PreviousCategoryID, date)
		if err != nil {
			return fmt.Errorf("recompute category %s: %w", event.PreviousCategoryID, err)
		}
		checked += n
	}

	logger.Get().Debugw("ledger event handled",
		"kind", event.Kind,
		"transaction_id", event.TransactionID,
		"budgets_checked", checked,
	)
	return nil
}

// Sweep recomputes every active budget and prunes expired log entries.
func (w *Worker) Sweep() error {
	log := logger.Get()

	result, err := w.budgets.RecomputeAll()
	if err != nil {
		return fmt.Errorf("recompute budgets: %w", err)
	}
	log.Infow("budget sweep finished",
		"checked", result.Checked,
		"updated", len(result.Updated),
		"failed", result.Failed,
	)

	pruned, err := w.logs.PruneLogs(w.now().Add(-w.retention))
	if err != nil {
		return fmt.Errorf("prune logs: %w", err)
	}
	if pruned > 0 {
		log.Infow("pruned log entries", "count", pruned)
	}
	return nil
}

// RunSweeps sweeps once immediately and then every interval until ctx ends.
// A failed sweep is logged and retried on the next tick.
func (w *Worker) RunSweeps(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Sweep(); err != nil {
			logger.Get().Errorw("sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
