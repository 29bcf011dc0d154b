// Package reconcile periodically re-checks unfinished bills so the local
// ledger converges on the payment API's view.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Worker runs ledger reconciliation on a cron schedule.
type Worker struct {
	ledger   LedgerService
	logger   *slog.Logger
	cron     *cron.Cron
	schedule string
}

// NewWorker creates a reconcile worker. The schedule is a cron expression,
// e.g. "@every 30s".
func NewWorker(ledger LedgerService, schedule string, logger *slog.Logger) *Worker {
	return &Worker{
		ledger:   ledger,
		logger:   logger,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Name returns the worker name.
func (w *Worker) Name() string {
	return "ledger-reconcile"
}

// Start schedules the reconciliation job.
func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("Panic in reconcile worker", "panic", r)
			}
		}()

		finished, err := w.ledger.Reconcile(context.Background())
		if err != nil {
			w.logger.Error("Reconcile pass failed", "error", err)
			return
		}
		if finished > 0 {
			w.logger.Info("Reconcile pass complete", "newly_finished", finished)
		}
	})
	if err != nil {
		return errors.Wrapf(err, "schedule reconcile worker %q", w.schedule)
	}

	w.cron.Start()
	w.logger.Info("Reconcile worker started", "schedule", w.schedule)
	return nil
}

// Stop stops the schedule. A pass already running is not interrupted.
func (w *Worker) Stop() {
	w.cron.Stop()
}
