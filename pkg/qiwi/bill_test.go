package qiwi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload(id string, status StatusValue, expiration time.Time) BillPayload {
	now := time.Now()
	return BillPayload{
		SiteID: "site-1",
		BillID: id,
		Amount: AmountPayload{Value: "100.50", Currency: CurrencyUSD},
		Status: StatusPayload{
			Value:           status,
			ChangedDateTime: now.Format(timestampLayout),
		},
		Customer:           Customer{Email: "payer@example.com"},
		Comment:            "test bill",
		CreationDateTime:   now.Format(timestampLayout),
		ExpirationDateTime: expiration.Format(timestampLayout),
		PayURL:             "https://pay.example.com/" + id,
	}
}

func TestLazyExpiryTriggersOnlyOnValueRead(t *testing.T) {
	expiration := time.Now().Add(-time.Hour).Truncate(time.Second)
	bill, err := newBill(nil, testPayload("bill-1", StatusWaiting, expiration))
	require.NoError(t, err)

	// The boolean accessors read the raw state and must not transition it.
	assert.False(t, bill.Expired())
	assert.False(t, bill.Rejected())
	assert.False(t, bill.Finished())
	assert.True(t, bill.Waiting())

	// Reading the value applies WAITING -> EXPIRED.
	assert.Equal(t, StatusExpired, bill.Status().Value())
	assert.True(t, bill.Finished())
	assert.True(t, bill.Expired())
	assert.True(t, bill.Status().ChangedDate().Equal(expiration))
}

func TestStatusValueBeforeExpiration(t *testing.T) {
	bill, err := newBill(nil, testPayload("bill-1", StatusWaiting, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, StatusWaiting, bill.Status().Value())
	assert.True(t, bill.Waiting())
}

func TestStatusValueTerminalStateUnchanged(t *testing.T) {
	// A paid bill past its expiration stays paid.
	bill, err := newBill(nil, testPayload("bill-1", StatusPaid, time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, bill.Status().Value())
	assert.False(t, bill.Expired())
}

func TestRemainingFlooredAtZero(t *testing.T) {
	expired, err := newBill(nil, testPayload("bill-1", StatusWaiting, time.Now().Add(-time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), expired.Remaining())

	waiting, err := newBill(nil, testPayload("bill-2", StatusWaiting, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Greater(t, waiting.Remaining(), 59*time.Minute)
	assert.Greater(t, waiting.Estimated(), time.Duration(0))
}

func TestBillPatchAppliesPartialUpdates(t *testing.T) {
	bill, err := newBill(nil, testPayload("bill-1", StatusWaiting, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	err = bill.patch(BillPayload{
		Comment: "updated",
		Status:  StatusPayload{Value: StatusPaid},
	})
	require.NoError(t, err)

	assert.Equal(t, "updated", bill.Comment())
	assert.Equal(t, StatusPaid, bill.Status().Value())
	// Untouched fields keep their values.
	assert.Equal(t, "100.50", bill.Amount().Payload().Value)
	assert.Equal(t, "site-1", bill.SiteID())
}

func TestBillPatchNeverReplacesCustomFields(t *testing.T) {
	filter := "qw"
	payload := testPayload("bill-1", StatusWaiting, time.Now().Add(time.Hour))
	payload.CustomFields = &CustomFieldsPayload{PaySourcesFilter: &filter}

	bill, err := newBill(nil, payload)
	require.NoError(t, err)
	original := bill.CustomFields()

	update := testPayload("bill-1", StatusWaiting, time.Now().Add(time.Hour))
	other := "card"
	update.CustomFields = &CustomFieldsPayload{PaySourcesFilter: &other}
	require.NoError(t, bill.patch(update))

	assert.Same(t, original, bill.CustomFields())
	assert.Equal(t, []PaySource{PaySourceQW}, bill.CustomFields().PaySourcesFilter)
}

func TestBillString(t *testing.T) {
	bill, err := newBill(nil, testPayload("bill-1", StatusWaiting, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, "USD|100.5|bill-1|site-1|WAITING", bill.String())
}

func TestRejectFinishedBillFailsLocally(t *testing.T) {
	bill, err := newBill(nil, testPayload("bill-1", StatusPaid, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	_, err = bill.Reject(context.Background())
	assert.ErrorIs(t, err, ErrBillFinished)
}
