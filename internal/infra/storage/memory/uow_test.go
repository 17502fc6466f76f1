package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/app/uow"
	domainbooking "campbook/internal/domain/booking"
	"campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
	"campbook/internal/infra/storage/memory"
)

func sampleBooking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		CampsiteID: "cs-1",
		GuestID:    "guest-1",
		Range:      daterange.Must(time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 5, 3, 0, 0, 0, 0, time.UTC)),
		Guests:     domainbooking.Guests{Adults: 1},
		Price: pricing.PriceBreakdown{
			Currency:      "USD",
			Nights:        2,
			Subtotal:      money.Must(9000, "USD"),
			CleaningFee:   money.Zero("USD"),
			ServiceFee:    money.Zero("USD"),
			TaxAmount:     money.Zero("USD"),
			DiscountTotal: money.Zero("USD"),
		},
		Policy:    domainbooking.PolicyFlexible,
		CreatedAt: time.Date(2027, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func TestStore_CommitPublishesStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Save(ctx, sampleBooking(t, "b1")))

	staged, err := unit.Bookings().ListByCampsite(ctx, "cs-1")
	require.NoError(t, err)
	assert.Len(t, staged, 1)
	_, err = store.Bookings.ByID(ctx, "b1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	require.NoError(t, unit.Commit(ctx))

	got, err := store.Bookings.ByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Empty(t, got.PendingEvents())
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Save(ctx, sampleBooking(t, "b1")))
	require.NoError(t, unit.Rollback(ctx))

	_, err = store.Bookings.ByID(ctx, "b1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	// the writer lock is released
	next, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, next.Rollback(ctx))
	assert.ErrorIs(t, next.Commit(ctx), memory.ErrUnitClosed)
}

func TestStore_ReturnedAggregatesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Bookings.Save(ctx, sampleBooking(t, "b1")))

	b, err := store.Bookings.ByID(ctx, "b1")
	require.NoError(t, err)
	_, err = b.Cancel(domainbooking.CancelledByGuest, "", time.Date(2027, 4, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	again, err := store.Bookings.ByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, again.Status)
}

func TestCalendarRepository_EmptyCalendarForUnknownSite(t *testing.T) {
	cal, err := memory.NewCalendarRepository().Calendar(context.Background(), "cs-9")

	require.NoError(t, err)
	assert.Equal(t, "cs-9", cal.CampsiteID)
	assert.Empty(t, cal.Blocks)
}
