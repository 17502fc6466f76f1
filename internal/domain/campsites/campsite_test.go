package campsites_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/domain/booking"
	"campbook/internal/domain/campsites"
	"campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/money"
)

var now = time.Date(2027, 3, 1, 9, 0, 0, 0, time.UTC)

func params(id, name string) campsites.CreateParams {
	return campsites.CreateParams{
		ID:        campsites.CampsiteID(id),
		Name:      name,
		MaxGuests: 4,
		Category:  campsites.CategoryTent,
		Location:  campsites.Location{City: "Moab", State: "UT", Country: "US"},
		Pricing:   pricing.Rules{PricePerNight: money.Must(4500, "USD"), CleaningFee: money.Zero("USD")},
		Now:       now,
	}
}

func TestNewCampsite_Defaults(t *testing.T) {
	c, err := campsites.NewCampsite(params("cs-1", "  Red Rock Hideaway! "))

	require.NoError(t, err)
	assert.Equal(t, "Red Rock Hideaway!", c.Name)
	assert.Equal(t, "red-rock-hideaway", c.Slug)
	assert.Equal(t, booking.PolicyModerate, c.CancellationPolicy)
	assert.Equal(t, campsites.StateDraft, c.State)
	assert.ErrorIs(t, c.EnsureBookable(), campsites.ErrNotBookable)

	require.NoError(t, c.Activate(now))
	assert.NoError(t, c.EnsureBookable())
}

func TestNewCampsite_Validation(t *testing.T) {
	p := params("cs-1", "Site")
	p.MaxGuests = 0
	_, err := campsites.NewCampsite(p)
	assert.ErrorIs(t, err, campsites.ErrMaxGuests)

	p = params("cs-1", "Site")
	p.MinNights, p.MaxNights = 5, 2
	_, err = campsites.NewCampsite(p)
	assert.ErrorIs(t, err, campsites.ErrNightsRange)

	p = params("cs-1", "Site")
	p.Pricing.PricePerNight = money.Must(500, "USD")
	_, err = campsites.NewCampsite(p)
	assert.ErrorIs(t, err, pricing.ErrInvalidRules)

	p = params("cs-1", "Site")
	p.CancellationPolicy = "LOOSE"
	_, err = campsites.NewCampsite(p)
	assert.ErrorIs(t, err, booking.ErrUnknownPolicy)
}

func TestSuspendRequiresActive(t *testing.T) {
	c, err := campsites.NewCampsite(params("cs-1", "Site"))
	require.NoError(t, err)

	assert.ErrorIs(t, c.Suspend("flood", now), campsites.ErrInvalidState)
}

func TestApply_FiltersSortsAndPages(t *testing.T) {
	var all []*campsites.Campsite
	for i, name := range []string{"Aspen Loop", "Blue Lake", "Cedar Flats"} {
		p := params(name, name)
		p.Pricing.PricePerNight = money.Must(int64(9000-i*1000), "USD")
		p.PetsAllowed = i != 1
		c, err := campsites.NewCampsite(p)
		require.NoError(t, err)
		require.NoError(t, c.Activate(now))
		all = append(all, c)
	}
	all[2].Featured = true

	res := campsites.Apply(all, campsites.ListParams{})
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Cedar Flats", res.Items[0].Name)

	res = campsites.Apply(all, campsites.ListParams{Sort: campsites.SortPriceAsc, PetsOnly: true})
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Cedar Flats", res.Items[0].Name)
	assert.Equal(t, "Aspen Loop", res.Items[1].Name)

	res = campsites.Apply(all, campsites.ListParams{Query: "LAKE"})
	require.Len(t, res.Items, 1)

	res = campsites.Apply(all, campsites.ListParams{Limit: 1, Offset: 5})
	assert.Empty(t, res.Items)
	assert.Equal(t, 3, res.Total)
}
