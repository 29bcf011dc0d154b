package ledger

import (
	"context"

	"billpay/pkg/qiwi"
)

type Storage interface {
	UpsertBill(ctx context.Context, record Record) error
	GetBill(ctx context.Context, criteria GetCriteria) (*Record, error)
	ListBills(ctx context.Context, criteria GetCriteria) ([]Record, error)
}

// BillAPI is the slice of the billing SDK the ledger needs. *qiwi.Manager
// satisfies it.
type BillAPI interface {
	Check(ctx context.Context, billID string) (*qiwi.Bill, error)
}
