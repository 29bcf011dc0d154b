package environment

import (
	"context"
	"log/slog"

	"billpay/internal/config"
	"billpay/internal/storage"
	"billpay/internal/stories/ledger"
	"billpay/internal/workers"
	"billpay/internal/workers/reconcile"
)

type Services struct {
	Ledger        *ledger.Service
	WorkerManager *workers.Manager
}

func newServices(ctx context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	storageImpl := storage.New(clients.SQLiteDB.DB)
	if err := storageImpl.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	ledgerService := ledger.NewService(storageImpl, clients.Billing.Bills, logger.WithGroup("ledger"))

	reconcileWorker := reconcile.NewWorker(ledgerService, cfg.Watch.Schedule, logger.WithGroup("reconcile"))
	workerManager := workers.NewManager(logger, reconcileWorker)

	return &Services{
		Ledger:        ledgerService,
		WorkerManager: workerManager,
	}, nil
}
