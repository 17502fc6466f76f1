package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/domain/shared/daterange"
)

func jan(d int) time.Time {
	return time.Date(2027, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestNew_StripsTimeOfDay(t *testing.T) {
	dr, err := daterange.New(jan(10).Add(15*time.Hour), jan(13).Add(11*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, jan(10), dr.CheckIn)
	assert.Equal(t, jan(13), dr.CheckOut)
	assert.Equal(t, 3, dr.Nights())
}

func TestNew_NormalizesToUTC(t *testing.T) {
	east := time.FixedZone("UTC+9", 9*3600)
	// 2027-01-10 03:00 at UTC+9 is still January 9th in UTC.
	dr, err := daterange.New(time.Date(2027, 1, 10, 3, 0, 0, 0, east), jan(12))

	require.NoError(t, err)
	assert.Equal(t, jan(9), dr.CheckIn)
}

func TestNew_RejectsEmptyAndReversedRanges(t *testing.T) {
	_, err := daterange.New(jan(10), jan(10))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = daterange.New(jan(12), jan(10))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	// same calendar day collapses to an empty range
	_, err = daterange.New(jan(10).Add(time.Hour), jan(10).Add(20*time.Hour))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestOverlaps_BoundaryIsNotConflict(t *testing.T) {
	requested := daterange.Must(jan(10), jan(13))

	assert.False(t, requested.Overlaps(daterange.Must(jan(13), jan(15))))
	assert.False(t, requested.Overlaps(daterange.Must(jan(7), jan(10))))
	assert.True(t, requested.Overlaps(daterange.Must(jan(12), jan(14))))
	assert.True(t, requested.Overlaps(daterange.Must(jan(1), jan(31))))
}

func TestEachNight(t *testing.T) {
	nights := daterange.Must(jan(30), time.Date(2027, time.February, 2, 0, 0, 0, 0, time.UTC)).EachNight()

	require.Len(t, nights, 3)
	assert.Equal(t, jan(30), nights[0])
	assert.Equal(t, jan(31), nights[1])
	assert.Equal(t, time.Date(2027, time.February, 1, 0, 0, 0, 0, time.UTC), nights[2])
}

func TestMerge(t *testing.T) {
	merged, ok := daterange.Must(jan(1), jan(5)).Merge(daterange.Must(jan(5), jan(8)))

	require.True(t, ok)
	assert.Equal(t, daterange.Must(jan(1), jan(8)), merged)

	_, ok = daterange.Must(jan(1), jan(5)).Merge(daterange.Must(jan(6), jan(8)))
	assert.False(t, ok)
}

func TestContainsDate(t *testing.T) {
	dr := daterange.Must(jan(10), jan(13))

	assert.True(t, dr.ContainsDate(jan(10)))
	assert.True(t, dr.ContainsDate(jan(12)))
	assert.False(t, dr.ContainsDate(jan(13)))
}
