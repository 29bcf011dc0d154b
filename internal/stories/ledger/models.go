package ledger

import (
	"time"

	"billpay/pkg/qiwi"
)

// Record is a ledger row: the locally persisted snapshot of a bill this
// application has issued or observed.
type Record struct {
	BillID         string
	SiteID         string
	AmountValue    string
	Currency       string
	Status         string
	Comment        string
	PayURL         string
	CreationDate   time.Time
	ExpirationDate time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecordFromBill snapshots the bill's current state. The status read goes
// through Value(), so a stale WAITING past its expiration is recorded as
// EXPIRED.
func RecordFromBill(b *qiwi.Bill) Record {
	return Record{
		BillID:         b.ID(),
		SiteID:         b.SiteID(),
		AmountValue:    b.Amount().Value.String(),
		Currency:       string(b.Amount().Currency),
		Status:         string(b.Status().Value()),
		Comment:        b.Comment(),
		PayURL:         b.PayURL(),
		CreationDate:   b.CreationDate(),
		ExpirationDate: b.ExpirationDate(),
	}
}

// GetCriteria filters ledger queries. Empty slices mean no filter.
type GetCriteria struct {
	BillIDs  []string
	Statuses []string
}
