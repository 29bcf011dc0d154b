package qiwi

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPollInterval is the delay between checks in Bill.Poll when the
// caller passes a non-positive interval.
const DefaultPollInterval = 10 * time.Second

// Bill is an invoice tracked through its lifecycle. Bills are never
// constructed by callers directly; they are created and reconciled by the
// manager's cache, which guarantees a single instance per bill id.
type Bill struct {
	manager *Manager

	mu             sync.Mutex
	id             string
	amount         *Amount
	comment        string
	creationDate   time.Time
	customFields   *CustomFields
	customer       Customer
	expirationDate time.Time
	payURL         string
	siteID         string
	status         *Status
}

func newBill(manager *Manager, p BillPayload) (*Bill, error) {
	amount := &Amount{}
	if err := amount.Patch(p.Amount); err != nil {
		return nil, err
	}

	var customFields *CustomFields
	if p.CustomFields != nil {
		var err error
		customFields, err = CustomFieldsFromPayload(*p.CustomFields)
		if err != nil {
			return nil, err
		}
	}

	b := &Bill{
		manager:        manager,
		id:             p.BillID,
		amount:         amount,
		comment:        p.Comment,
		creationDate:   parseTimestamp(p.CreationDateTime),
		customFields:   customFields,
		customer:       p.Customer,
		expirationDate: parseTimestamp(p.ExpirationDateTime),
		payURL:         p.PayURL,
		siteID:         p.SiteID,
	}
	b.status = newStatus(b, p.Status)
	return b, nil
}

// ID returns the server-assigned bill identifier.
func (b *Bill) ID() string { return b.id }

// Amount returns the bill's monetary value. The instance is patched in
// place on reconciliation, so holders always observe the latest value.
func (b *Bill) Amount() *Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amount
}

// Status returns the bill's lifecycle state.
func (b *Bill) Status() *Status { return b.status }

// CustomFields returns the optional bill metadata, nil when absent.
func (b *Bill) CustomFields() *CustomFields {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.customFields
}

// Customer returns the payer info.
func (b *Bill) Customer() Customer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.customer
}

// Comment returns the bill comment.
func (b *Bill) Comment() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.comment
}

// CreationDate returns when the bill was issued.
func (b *Bill) CreationDate() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.creationDate
}

// ExpirationDate returns when the bill stops being payable.
func (b *Bill) ExpirationDate() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expirationDate
}

// PayURL returns the payment form URL.
func (b *Bill) PayURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.payURL
}

// SiteID returns the merchant site the bill belongs to.
func (b *Bill) SiteID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.siteID
}

// Estimated returns how long ago the bill was created.
func (b *Bill) Estimated() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Since(b.creationDate)
}

// Remaining returns how long until the bill expires, floored at zero.
func (b *Bill) Remaining() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	remaining := time.Until(b.expirationDate)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Waiting reports whether the bill is still payable.
func (b *Bill) Waiting() bool { return b.status.Waiting() }

// Finished reports whether the bill reached any terminal state.
func (b *Bill) Finished() bool { return b.status.Finished() }

// Expired reports whether the raw status is EXPIRED.
func (b *Bill) Expired() bool { return b.status.Expired() }

// Rejected reports whether the raw status is REJECTED.
func (b *Bill) Rejected() bool { return b.status.Rejected() }

// Check fetches the bill's current state from the API and reconciles it
// into this instance.
func (b *Bill) Check(ctx context.Context) (*Bill, error) {
	return b.manager.Check(ctx, b.id)
}

// Reject cancels the bill. It fails with ErrBillFinished before any
// request is sent when the bill is already in a terminal state.
func (b *Bill) Reject(ctx context.Context) (*Bill, error) {
	if b.Finished() {
		return nil, ErrBillFinished
	}
	return b.manager.Reject(ctx, b.id)
}

// Poll repeatedly checks the bill until it finishes, a check fails, or
// the context is cancelled. A non-positive interval falls back to
// DefaultPollInterval. There is no attempt cap.
func (b *Bill) Poll(ctx context.Context, interval time.Duration) (*Bill, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for {
		bill, err := b.Check(ctx)
		if err != nil {
			return nil, err
		}
		if bill.Finished() {
			return bill, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// patch applies a partial update, field by field; only fields present in
// the payload change. Custom fields are deliberately never patched: the
// filter and theme of an issued bill are fixed at creation.
func (b *Bill) patch(p BillPayload) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.Amount.Value != "" {
		if err := b.amount.Patch(p.Amount); err != nil {
			return err
		}
	}
	if p.Comment != "" {
		b.comment = p.Comment
	}
	if p.CreationDateTime != "" {
		b.creationDate = parseTimestamp(p.CreationDateTime)
	}
	if p.Customer != (Customer{}) {
		b.customer = p.Customer
	}
	if p.ExpirationDateTime != "" {
		b.expirationDate = parseTimestamp(p.ExpirationDateTime)
	}
	if p.PayURL != "" {
		b.payURL = p.PayURL
	}
	if p.SiteID != "" {
		b.siteID = p.SiteID
	}
	if p.Status.Value != "" {
		b.status.patch(p.Status)
	}
	return nil
}

// String returns a compact one-line form of the bill.
func (b *Bill) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		b.amount.Currency, b.amount.Value, b.id, b.siteID, b.status.value)
}
