package mongo

import (
	"time"

	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
	domainpricing "campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
)

type rangeDocument struct {
	CheckIn  time.Time `bson:"check_in"`
	CheckOut time.Time `bson:"check_out"`
}

func newRangeDocument(r daterange.DateRange) rangeDocument {
	return rangeDocument{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

func (d rangeDocument) toRange() daterange.DateRange {
	return daterange.DateRange{CheckIn: d.CheckIn.UTC(), CheckOut: d.CheckOut.UTC()}
}

type bookingDocument struct {
	ID               string                       `bson:"_id"`
	CampsiteID       string                       `bson:"campsite_id"`
	GuestID          string                       `bson:"guest_id"`
	ConfirmationCode string                       `bson:"confirmation_code"`
	Range            rangeDocument                `bson:"range"`
	Guests           domainbooking.Guests         `bson:"guests"`
	Price            domainpricing.PriceBreakdown `bson:"price"`
	Policy           string                       `bson:"policy"`
	Status           string                       `bson:"status"`
	PaymentHold      string                       `bson:"payment_hold,omitempty"`
	Cancellation     *domainbooking.Cancellation  `bson:"cancellation,omitempty"`
	CreatedAt        time.Time                    `bson:"created_at"`
	UpdatedAt        time.Time                    `bson:"updated_at"`
	Version          int64                        `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:               string(b.ID),
		CampsiteID:       b.CampsiteID,
		GuestID:          b.GuestID,
		ConfirmationCode: b.ConfirmationCode,
		Range:            newRangeDocument(b.Range),
		Guests:           b.Guests,
		Price:            b.Price,
		Policy:           string(b.Policy),
		Status:           string(b.Status),
		PaymentHold:      b.PaymentHold,
		Cancellation:     b.Cancellation,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		Version:          b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:               domainbooking.BookingID(d.ID),
		CampsiteID:       d.CampsiteID,
		GuestID:          d.GuestID,
		ConfirmationCode: d.ConfirmationCode,
		Range:            d.Range.toRange(),
		Guests:           d.Guests,
		Price:            d.Price,
		Policy:           domainbooking.CancellationPolicy(d.Policy),
		Status:           domainbooking.Status(d.Status),
		PaymentHold:      d.PaymentHold,
		Cancellation:     d.Cancellation,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
		Version:          d.Version,
	}
}

type campsiteDocument struct {
	ID                 string                   `bson:"_id"`
	OwnerID            string                   `bson:"owner_id"`
	Name               string                   `bson:"name"`
	Slug               string                   `bson:"slug"`
	Description        string                   `bson:"description"`
	Category           string                   `bson:"category"`
	Location           domaincampsites.Location `bson:"location"`
	Amenities          []string                 `bson:"amenities"`
	MaxGuests          int                      `bson:"max_guests"`
	PetsAllowed        bool                     `bson:"pets_allowed"`
	MinNights          int                      `bson:"min_nights"`
	MaxNights          int                      `bson:"max_nights"`
	CancellationPolicy string                   `bson:"cancellation_policy"`
	Pricing            domainpricing.Rules      `bson:"pricing"`
	Discounts          []domainpricing.Discount `bson:"discounts"`
	Featured           bool                     `bson:"featured"`
	Rating             float64                  `bson:"rating"`
	State              string                   `bson:"state"`
	CreatedAt          time.Time                `bson:"created_at"`
	UpdatedAt          time.Time                `bson:"updated_at"`
	Version            int64                    `bson:"version"`
}

func newCampsiteDocument(c *domaincampsites.Campsite) campsiteDocument {
	return campsiteDocument{
		ID:                 string(c.ID),
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
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		Version:            c.Version,
	}
}

func (d campsiteDocument) toAggregate() *domaincampsites.Campsite {
	return &domaincampsites.Campsite{
		ID:                 domaincampsites.CampsiteID(d.ID),
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
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
		Version:            d.Version,
	}
}

type blockDocument struct {
	ID        string        `bson:"id"`
	Range     rangeDocument `bson:"range"`
	Reason    string        `bson:"reason"`
	Note      string        `bson:"note,omitempty"`
	CreatedAt time.Time     `bson:"created_at"`
}

type calendarDocument struct {
	CampsiteID string          `bson:"_id"`
	Blocks     []blockDocument `bson:"blocks"`
	Version    int64           `bson:"version"`
}

func newCalendarDocument(cal *domainavailability.Calendar) calendarDocument {
	doc := calendarDocument{CampsiteID: cal.CampsiteID, Version: cal.Version, Blocks: make([]blockDocument, 0, len(cal.Blocks))}
	for _, b := range cal.Blocks {
		doc.Blocks = append(doc.Blocks, blockDocument{
			ID:        b.ID,
			Range:     newRangeDocument(b.Range),
			Reason:    string(b.Reason),
			Note:      b.Note,
			CreatedAt: b.CreatedAt,
		})
	}
	return doc
}

func (d calendarDocument) toAggregate() *domainavailability.Calendar {
	cal := &domainavailability.Calendar{CampsiteID: d.CampsiteID, Version: d.Version}
	for _, b := range d.Blocks {
		cal.Blocks = append(cal.Blocks, domainavailability.BlockedRange{
			ID:         b.ID,
			CampsiteID: d.CampsiteID,
			Range:      b.Range.toRange(),
			Reason:     domainavailability.BlockReason(b.Reason),
			Note:       b.Note,
			CreatedAt:  b.CreatedAt.UTC(),
		})
	}
	return cal
}
