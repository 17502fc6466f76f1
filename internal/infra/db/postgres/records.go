package postgres

import (
	"time"

	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
	domainpricing "campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
)

// campsiteData is the JSONB body of a campsites row. Filterable fields are
// duplicated into columns on save.
type campsiteData struct {
	OwnerID            string                   `json:"owner_id"`
	Name               string                   `json:"name"`
	Slug               string                   `json:"slug"`
	Description        string                   `json:"description"`
	Category           string                   `json:"category"`
	Location           domaincampsites.Location `json:"location"`
	Amenities          []string                 `json:"amenities"`
	MaxGuests          int                      `json:"max_guests"`
	PetsAllowed        bool                     `json:"pets_allowed"`
	MinNights          int                      `json:"min_nights"`
	MaxNights          int                      `json:"max_nights"`
	CancellationPolicy string                   `json:"cancellation_policy"`
	Pricing            domainpricing.Rules      `json:"pricing"`
	Discounts          []domainpricing.Discount `json:"discounts"`
	Featured           bool                     `json:"featured"`
	Rating             float64                  `json:"rating"`
	State              string                   `json:"state"`
}

func newCampsiteData(c *domaincampsites.Campsite) campsiteData {
	return campsiteData{
		OwnerID:            c.OwnerID,
		Name:               c.Name,
		Slug:               c.Slug,
		Description:        c.Description,
		Category:           string(c.Category),
		Location:           c.Location,
		Amenities:          c.Amenities,
		MaxGuests:          c.MaxGuests,
		PetsAllowed:        c.PetsAllowed,
		MinNights:          c.MinNights,
		MaxNights:          c.MaxNights,
		CancellationPolicy: string(c.CancellationPolicy),
		Pricing:            c.Pricing,
		Discounts:          c.Discounts,
		Featured:           c.Featured,
		Rating:             c.Rating,
		State:              string(c.State),
	}
}

func (d campsiteData) toAggregate(id string, version int64, created, updated time.Time) *domaincampsites.Campsite {
	return &domaincampsites.Campsite{
		ID:                 domaincampsites.CampsiteID(id),
		OwnerID:            d.OwnerID,
		Name:               d.Name,
		Slug:               d.Slug,
		Description:        d.Description,
		Category:           domaincampsites.Category(d.Category),
		Location:           d.Location,
		Amenities:          d.Amenities,
		MaxGuests:          d.MaxGuests,
		PetsAllowed:        d.PetsAllowed,
		MinNights:          d.MinNights,
		MaxNights:          d.MaxNights,
		CancellationPolicy: domainbooking.CancellationPolicy(d.CancellationPolicy),
		Pricing:            d.Pricing,
		Discounts:          d.Discounts,
		Featured:           d.Featured,
		Rating:             d.Rating,
		State:              domaincampsites.State(d.State),
		CreatedAt:          created.UTC(),
		UpdatedAt:          updated.UTC(),
		Version:            version,
	}
}

type bookingData struct {
	CampsiteID       string                       `json:"campsite_id"`
	GuestID          string                       `json:"guest_id"`
	ConfirmationCode string                       `json:"confirmation_code"`
	Range            daterange.DateRange          `json:"range"`
	Guests           domainbooking.Guests         `json:"guests"`
	Price            domainpricing.PriceBreakdown `json:"price"`
	Policy           string                       `json:"policy"`
	Status           string                       `json:"status"`
	PaymentHold      string                       `json:"payment_hold,omitempty"`
	Cancellation     *domainbooking.Cancellation  `json:"cancellation,omitempty"`
}

func newBookingData(b *domainbooking.Booking) bookingData {
	return bookingData{
		CampsiteID:       b.CampsiteID,
		GuestID:          b.GuestID,
		ConfirmationCode: b.ConfirmationCode,
		Range:            b.Range,
		Guests:           b.Guests,
		Price:            b.Price,
		Policy:           string(b.Policy),
		Status:           string(b.Status),
		PaymentHold:      b.PaymentHold,
		Cancellation:     b.Cancellation,
	}
}

func (d bookingData) toAggregate(id string, version int64, created, updated time.Time) *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:               domainbooking.BookingID(id),
		CampsiteID:       d.CampsiteID,
		GuestID:          d.GuestID,
		ConfirmationCode: d.ConfirmationCode,
		Range:            daterange.DateRange{CheckIn: d.Range.CheckIn.UTC(), CheckOut: d.Range.CheckOut.UTC()},
		Guests:           d.Guests,
		Price:            d.Price,
		Policy:           domainbooking.CancellationPolicy(d.Policy),
		Status:           domainbooking.Status(d.Status),
		PaymentHold:      d.PaymentHold,
		Cancellation:     d.Cancellation,
		CreatedAt:        created.UTC(),
		UpdatedAt:        updated.UTC(),
		Version:          version,
	}
}
