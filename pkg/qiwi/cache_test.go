package qiwi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheAddPreservesIdentity(t *testing.T) {
	cache := newCache(nil)
	expiration := time.Now().Add(time.Hour)

	first, err := cache.Add(testPayload("bill-1", StatusWaiting, expiration))
	require.NoError(t, err)

	update := testPayload("bill-1", StatusWaiting, expiration)
	update.Comment = "second fetch"
	second, err := cache.Add(update)
	require.NoError(t, err)

	// Same instance both times, with the latest state patched in.
	assert.Same(t, first, second)
	assert.Equal(t, "second fetch", first.Comment())
	assert.Equal(t, 1, cache.Len())
}

func TestCacheAddDistinctIDs(t *testing.T) {
	cache := newCache(nil)
	expiration := time.Now().Add(time.Hour)

	first, err := cache.Add(testPayload("bill-1", StatusWaiting, expiration))
	require.NoError(t, err)
	second, err := cache.Add(testPayload("bill-2", StatusWaiting, expiration))
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, cache.Len())
	assert.Same(t, first, cache.Get("bill-1"))
	assert.Same(t, second, cache.Get("bill-2"))
}

func TestCacheGetUnknownID(t *testing.T) {
	cache := newCache(nil)
	assert.Nil(t, cache.Get("missing"))
}

func TestCacheAddRejectsInvalidPayload(t *testing.T) {
	cache := newCache(nil)
	payload := testPayload("bill-1", StatusWaiting, time.Now().Add(time.Hour))
	payload.Amount.Value = "1234567.00"

	_, err := cache.Add(payload)
	assert.ErrorIs(t, err, ErrInvalidAmountValue)
	assert.Equal(t, 0, cache.Len())
}
