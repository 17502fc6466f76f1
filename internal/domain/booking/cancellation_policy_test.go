package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/domain/booking"
	"campbook/internal/domain/shared/money"
)

func TestResolveRefund_PolicyTable(t *testing.T) {
	checkIn := time.Date(2027, 8, 20, 0, 0, 0, 0, time.UTC)
	total := money.Must(41040, "USD")

	cases := []struct {
		name      string
		policy    booking.CancellationPolicy
		daysAhead int
		percent   int
		amount    int64
	}{
		{"flexible a day ahead", booking.PolicyFlexible, 1, 100, 41040},
		{"flexible same day", booking.PolicyFlexible, 0, 0, 0},
		{"moderate five days", booking.PolicyModerate, 5, 100, 41040},
		{"moderate four days", booking.PolicyModerate, 4, 50, 20520},
		{"moderate same day", booking.PolicyModerate, 0, 50, 20520},
		{"strict a week ahead", booking.PolicyStrict, 7, 50, 20520},
		{"strict six days", booking.PolicyStrict, 6, 0, 0},
		{"super strict far ahead", booking.PolicySuperStrict, 60, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cancelAt := checkIn.AddDate(0, 0, -tc.daysAhead)

			got, err := booking.ResolveRefund(tc.policy, total, checkIn, cancelAt)

			require.NoError(t, err)
			assert.Equal(t, tc.daysAhead, got.DaysUntil)
			assert.Equal(t, tc.percent, got.Percentage)
			assert.Equal(t, tc.amount, got.Amount.Amount)
			assert.Equal(t, total.Amount-tc.amount, got.Penalty.Amount)
		})
	}
}

func TestDaysUntil_RoundsPartialDaysUp(t *testing.T) {
	checkIn := time.Date(2027, 8, 20, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, booking.DaysUntil(checkIn, checkIn.Add(-4*24*time.Hour-time.Hour)))
	assert.Equal(t, 1, booking.DaysUntil(checkIn, checkIn.Add(-time.Minute)))
	assert.Equal(t, 0, booking.DaysUntil(checkIn, checkIn))
	assert.Equal(t, 0, booking.DaysUntil(checkIn, checkIn.Add(48*time.Hour)))
}

func TestResolveRefund_CancelledCenturiesAhead(t *testing.T) {
	checkIn := time.Date(2027, 7, 1, 0, 0, 0, 0, time.UTC)
	cancelAt := time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)
	total := money.Must(10000, "USD")

	// the gap exceeds the range of time.Duration
	days := booking.DaysUntil(checkIn, cancelAt)
	assert.Positive(t, days)
	assert.Greater(t, days, 100*365)

	cases := []struct {
		policy  booking.CancellationPolicy
		percent int
	}{
		{booking.PolicyFlexible, 100},
		{booking.PolicyModerate, 100},
		{booking.PolicyStrict, 50},
		{booking.PolicySuperStrict, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.policy), func(t *testing.T) {
			got, err := booking.ResolveRefund(tc.policy, total, checkIn, cancelAt)

			require.NoError(t, err)
			assert.Equal(t, days, got.DaysUntil)
			assert.Equal(t, tc.percent, got.Percentage)
			assert.Equal(t, total.Percent(tc.percent), got.Amount)
		})
	}
}

func TestResolveRefund_FarFutureCheckIn(t *testing.T) {
	checkIn := time.Date(2400, 6, 1, 0, 0, 0, 0, time.UTC)
	cancelAt := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	got, err := booking.ResolveRefund(booking.PolicyModerate, money.Must(10000, "USD"), checkIn, cancelAt)

	require.NoError(t, err)
	assert.Positive(t, got.DaysUntil)
	assert.Equal(t, 100, got.Percentage)
	assert.Equal(t, int64(10000), got.Amount.Amount)
}

func TestResolveRefund_AfterCheckInClampsToZeroDays(t *testing.T) {
	checkIn := time.Date(2027, 8, 20, 0, 0, 0, 0, time.UTC)

	got, err := booking.ResolveRefund(booking.PolicyModerate, money.Must(10000, "USD"), checkIn, checkIn.AddDate(0, 0, 2))

	require.NoError(t, err)
	assert.Equal(t, 0, got.DaysUntil)
	assert.Equal(t, 50, got.Percentage)
}

func TestResolveRefund_UnknownPolicy(t *testing.T) {
	_, err := booking.ResolveRefund("LENIENT", money.Must(10000, "USD"), time.Now(), time.Now())

	assert.ErrorIs(t, err, booking.ErrUnknownPolicy)
}

func TestParsePolicy(t *testing.T) {
	p, err := booking.ParsePolicy(" moderate ")
	require.NoError(t, err)
	assert.Equal(t, booking.PolicyModerate, p)

	_, err = booking.ParsePolicy("whatever")
	assert.ErrorIs(t, err, booking.ErrUnknownPolicy)
}
