package ledger

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"billpay/pkg/qiwi"
)

// Service keeps the local bill ledger in sync with the payment API.
type Service struct {
	storage Storage
	bills   BillAPI
	logger  *slog.Logger
}

// NewService creates a new ledger service.
func NewService(storage Storage, bills BillAPI, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		bills:   bills,
		logger:  logger,
	}
}

// Track records the bill's current state in the ledger.
func (s *Service) Track(ctx context.Context, bill *qiwi.Bill) error {
	record := RecordFromBill(bill)
	if err := s.storage.UpsertBill(ctx, record); err != nil {
		return errors.Wrapf(err, "upsert bill %s", record.BillID)
	}
	return nil
}

// Unfinished lists ledger rows still recorded as WAITING.
func (s *Service) Unfinished(ctx context.Context) ([]Record, error) {
	return s.storage.ListBills(ctx, GetCriteria{
		Statuses: []string{string(qiwi.StatusWaiting)},
	})
}

// Reconcile re-checks every unfinished ledger bill against the API and
// records the fresh state. A failing bill is logged and skipped so one
// bad id cannot stall the rest. It returns how many bills reached a
// terminal state during this pass.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	records, err := s.Unfinished(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list unfinished bills")
	}

	finished := 0
	for _, record := range records {
		bill, err := s.bills.Check(ctx, record.BillID)
		if err != nil {
			s.logger.Error("Failed to check bill",
				"bill_id", record.BillID,
				"error", err,
			)
			continue
		}

		if err := s.Track(ctx, bill); err != nil {
			s.logger.Error("Failed to update ledger",
				"bill_id", record.BillID,
				"error", err,
			)
			continue
		}

		if bill.Finished() {
			finished++
			s.logger.Info("Bill finished",
				"bill_id", bill.ID(),
				"status", string(bill.Status().Value()),
			)
		}
	}

	return finished, nil
}
