package qiwi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"billpay/pkg/route"
)

const maxCommentLength = 255

// CreateBillParams describes a bill to issue. Exactly one of Remaining
// and Expiration must be set. Customer, Comment and CustomFields are
// optional and appear in the request body only when provided.
type CreateBillParams struct {
	Amount       *Amount
	Remaining    time.Duration
	Expiration   time.Time
	Customer     *Customer
	Comment      string
	CustomFields *CustomFields
}

// Manager orchestrates bill operations against the API and owns the
// identity cache the results are reconciled through.
type Manager struct {
	client *Client

	// Cache holds every bill this manager has seen, one instance per id.
	Cache *Cache
}

func newManager(client *Client) *Manager {
	m := &Manager{client: client}
	m.Cache = newCache(m)
	return m
}

func (m *Manager) route() route.Route {
	return m.client.route.Path("partner", "bill", "v1")
}

// Create issues a new bill. An empty billID gets a generated UUID, since
// the API requires client-assigned identifiers. All validation failures
// are returned before any request is sent.
func (m *Manager) Create(ctx context.Context, billID string, params CreateBillParams) (*Bill, error) {
	hasRemaining := params.Remaining > 0
	hasExpiration := !params.Expiration.IsZero()
	if hasRemaining == hasExpiration {
		return nil, errors.Wrap(ErrInvalidExpirationDate, "exactly one of Remaining and Expiration must be set")
	}

	expiration := params.Expiration
	if hasRemaining {
		expiration = time.Now().Add(params.Remaining)
	}

	if params.Amount == nil {
		return nil, errors.Wrap(ErrInvalidAmountValue, "amount is required")
	}
	if err := ValidateAmountValue(params.Amount.Payload().Value); err != nil {
		return nil, err
	}
	if len(params.Comment) > maxCommentLength {
		return nil, errors.Wrapf(ErrInvalidComment, "%d characters", len(params.Comment))
	}

	formatted, err := FormatTimestamp(expiration)
	if err != nil {
		return nil, err
	}

	if billID == "" {
		billID = uuid.NewString()
	}

	request := createBillRequest{
		Amount:             params.Amount.Payload(),
		ExpirationDateTime: formatted,
	}
	if params.Customer != nil {
		request.Customer = params.Customer
	}
	if params.Comment != "" {
		request.Comment = params.Comment
	}
	if params.CustomFields != nil {
		request.CustomFields = params.CustomFields.Payload()
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "encode create request")
	}

	res, err := m.route().Param("bills", billID).Put(ctx, route.Options{Body: body})
	payload, err := m.client.handleResponse(res, err)
	if err != nil {
		return nil, err
	}
	return m.Cache.Add(payload)
}

// Check fetches the bill's current state and reconciles it through the
// cache.
func (m *Manager) Check(ctx context.Context, billID string) (*Bill, error) {
	res, err := m.route().Param("bills", billID).Get(ctx)
	payload, err := m.client.handleResponse(res, err)
	if err != nil {
		return nil, err
	}
	return m.Cache.Add(payload)
}

// Reject cancels a bill. When a cached instance is already finished the
// call fails locally with ErrBillFinished and no request is sent;
// otherwise the server has the final word.
func (m *Manager) Reject(ctx context.Context, billID string) (*Bill, error) {
	if existing := m.Cache.Get(billID); existing != nil && existing.Finished() {
		return nil, ErrBillFinished
	}

	res, err := m.route().Param("bills", billID).Path("reject").Post(ctx)
	payload, err := m.client.handleResponse(res, err)
	if err != nil {
		return nil, err
	}
	return m.Cache.Add(payload)
}

// FormatTimestamp renders a timestamp the way the API demands expiration
// dates: ISO-8601 with an explicit offset (never Z), two-digit zero-padded
// components, e.g. 2024-05-31T23:59:59-05:00.
func FormatTimestamp(t time.Time) (string, error) {
	if t.IsZero() || t.Year() < 0 || t.Year() > 9999 {
		return "", errors.Wrapf(ErrInvalidExpirationDateTime, "%v", t)
	}
	return t.Format(timestampLayout), nil
}
