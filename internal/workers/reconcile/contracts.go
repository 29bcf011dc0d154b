package reconcile

import "context"

// LedgerService reconciles unfinished ledger bills with the payment API.
type LedgerService interface {
	Reconcile(ctx context.Context) (finished int, err error)
}
