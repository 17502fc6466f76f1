package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/domain/booking"
	"campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
)

var created = time.Date(2027, 6, 1, 12, 0, 0, 0, time.UTC)

func newBooking(t *testing.T, policy booking.CancellationPolicy) *booking.Booking {
	t.Helper()
	b, err := booking.NewBooking(booking.CreateParams{
		ID:               "bk-1",
		CampsiteID:       "cs-1",
		GuestID:          "guest-1",
		ConfirmationCode: "CB-0A1B2C3D",
		Range:            daterange.Must(time.Date(2027, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 7, 4, 0, 0, 0, 0, time.UTC)),
		Guests:           booking.Guests{Adults: 2, Children: 1},
		Price: pricing.PriceBreakdown{
			Currency:      "USD",
			Nights:        3,
			Subtotal:      money.Must(30000, "USD"),
			CleaningFee:   money.Must(5000, "USD"),
			ServiceFee:    money.Must(3000, "USD"),
			TaxAmount:     money.Must(3040, "USD"),
			DiscountTotal: money.Zero("USD"),
		},
		Policy:    policy,
		CreatedAt: created,
	})
	require.NoError(t, err)
	return b
}

func eventNames(b *booking.Booking) []string {
	var names []string
	for _, e := range b.PendingEvents() {
		names = append(names, e.EventName())
	}
	return names
}

func TestNewBooking_StartsPending(t *testing.T) {
	b := newBooking(t, booking.PolicyModerate)

	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, int64(41040), b.Price.Total.Amount)
	assert.Equal(t, []string{booking.EventRequested}, eventNames(b))
}

func TestNewBooking_RejectsGuestsWithoutAdult(t *testing.T) {
	_, err := booking.NewBooking(booking.CreateParams{
		CampsiteID: "cs-1",
		GuestID:    "g",
		Range:      daterange.Must(created, created.AddDate(0, 0, 1)),
		Guests:     booking.Guests{Children: 2},
		Policy:     booking.PolicyFlexible,
	})

	assert.ErrorIs(t, err, booking.ErrInvalidGuests)
}

func TestBooking_FullStayLifecycle(t *testing.T) {
	b := newBooking(t, booking.PolicyFlexible)
	now := created

	require.NoError(t, b.Confirm("hold-1", now))
	require.NoError(t, b.CheckIn(now.AddDate(0, 1, 0)))
	require.NoError(t, b.CheckOut(now.AddDate(0, 1, 3)))
	require.NoError(t, b.Complete(now.AddDate(0, 1, 3)))

	assert.Equal(t, booking.StatusCompleted, b.Status)
	assert.Equal(t, []string{
		booking.EventRequested, booking.EventConfirmed, booking.EventCheckedIn,
		booking.EventCheckedOut, booking.EventCompleted,
	}, eventNames(b))
}

func TestBooking_ConfirmRequiresPaymentHold(t *testing.T) {
	b := newBooking(t, booking.PolicyFlexible)

	assert.ErrorIs(t, b.Confirm("", created), booking.ErrPaymentHoldRequired)
	assert.Equal(t, booking.StatusPending, b.Status)
}

func TestBooking_InvalidTransitions(t *testing.T) {
	b := newBooking(t, booking.PolicyFlexible)

	assert.ErrorIs(t, b.CheckIn(created), booking.ErrInvalidState)
	assert.ErrorIs(t, b.CheckOut(created), booking.ErrInvalidState)
	assert.ErrorIs(t, b.Complete(created), booking.ErrInvalidState)
	assert.ErrorIs(t, b.MarkNoShow(created), booking.ErrInvalidState)
}

func TestBooking_CancelAppliesPolicy(t *testing.T) {
	b := newBooking(t, booking.PolicyModerate)
	require.NoError(t, b.Confirm("hold-1", created))
	cancelAt := time.Date(2027, 6, 27, 0, 0, 0, 0, time.UTC)

	refund, err := b.Cancel(booking.CancelledByGuest, "plans changed", cancelAt)

	require.NoError(t, err)
	assert.Equal(t, 4, refund.DaysUntil)
	assert.Equal(t, 50, refund.Percentage)
	assert.Equal(t, int64(20520), refund.Amount.Amount)
	assert.Equal(t, booking.StatusCanceled, b.Status)
	require.NotNil(t, b.Cancellation)
	assert.Equal(t, refund, b.Cancellation.Refund)
	assert.Equal(t, refund.Amount, b.RefundAmount())
}

func TestBooking_CancelTwiceFails(t *testing.T) {
	b := newBooking(t, booking.PolicyFlexible)
	_, err := b.Cancel(booking.CancelledByGuest, "", created)
	require.NoError(t, err)

	_, err = b.Cancel(booking.CancelledByGuest, "", created)
	assert.ErrorIs(t, err, booking.ErrAlreadyCanceled)

	require.NoError(t, b.MarkRefunded("rf-1", created))
	assert.Equal(t, booking.StatusRefunded, b.Status)

	_, err = b.Cancel(booking.CancelledByHost, "", created)
	assert.ErrorIs(t, err, booking.ErrAlreadyCanceled)
}

func TestBooking_CancelAfterCheckInIsInvalid(t *testing.T) {
	b := newBooking(t, booking.PolicyFlexible)
	require.NoError(t, b.Confirm("hold-1", created))
	require.NoError(t, b.CheckIn(created))

	_, err := b.Cancel(booking.CancelledByGuest, "", created)

	assert.ErrorIs(t, err, booking.ErrInvalidState)
}

func TestBooking_MarkRefundedWithoutRefundAmount(t *testing.T) {
	b := newBooking(t, booking.PolicySuperStrict)
	_, err := b.Cancel(booking.CancelledByGuest, "", created)
	require.NoError(t, err)

	assert.ErrorIs(t, b.MarkRefunded("rf-1", created), booking.ErrNothingToRefund)
}

func TestBooking_NoShowOnlyAfterCheckInDate(t *testing.T) {
	b := newBooking(t, booking.PolicyStrict)
	require.NoError(t, b.Confirm("hold-1", created))

	assert.ErrorIs(t, b.MarkNoShow(created), booking.ErrInvalidState)
	require.NoError(t, b.MarkNoShow(time.Date(2027, 7, 2, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, booking.StatusNoShow, b.Status)
}

func TestStatus_OccupiesRange(t *testing.T) {
	occupying := map[booking.Status]bool{
		booking.StatusPending:    true,
		booking.StatusConfirmed:  true,
		booking.StatusCheckedIn:  true,
		booking.StatusCheckedOut: true,
		booking.StatusCompleted:  false,
		booking.StatusCanceled:   false,
		booking.StatusRefunded:   false,
		booking.StatusNoShow:     false,
	}
	for status, want := range occupying {
		assert.Equal(t, want, status.OccupiesRange(), status)
	}
	assert.False(t, booking.StatusCheckedOut.Blocking())
}
