package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/app/middleware"
)

func TestIdempotencyStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(time.Hour)
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", OccurredAt: now}))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(2 * time.Hour)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIdempotencyStore_ReserveClaimsKeyOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(time.Hour)
	store.now = func() time.Time { return now }
	pending := middleware.IdempotencyRecord{Key: "k", Command: "booking.request", OccurredAt: now, Pending: true}

	ok, err := store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation loses")

	require.NoError(t, store.Release(ctx, "k"))
	ok, err = store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be claimed again")

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Command: "booking.request", OccurredAt: now}))
	require.NoError(t, store.Release(ctx, "k"))
	rec, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found, "release leaves finished results alone")
	assert.False(t, rec.Pending)

	now = now.Add(2 * time.Hour)
	ok, err = store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.True(t, ok, "expired results do not block the key")
}
