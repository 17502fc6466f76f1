package availability

import (
	"errors"
	"time"

	"campbook/internal/domain/booking"
	"campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
)

type Guests = booking.Guests

// Reason is the machine-readable code of a failed availability check.
type Reason string

const (
	ReasonInvalidRange   Reason = "INVALID_RANGE"
	ReasonPastDate       Reason = "PAST_DATE"
	ReasonInvalidGuests  Reason = "INVALID_GUESTS"
	ReasonOverCapacity   Reason = "OVER_CAPACITY"
	ReasonPetsNotAllowed Reason = "PETS_NOT_ALLOWED"
	ReasonStayTooShort   Reason = "STAY_TOO_SHORT"
	ReasonStayTooLong    Reason = "STAY_TOO_LONG"
	ReasonDateConflict   Reason = "DATE_CONFLICT"
)

var (
	ErrPastDate       = errors.New("availability: check-in is in the past")
	ErrOverCapacity   = errors.New("availability: party exceeds campsite capacity")
	ErrPetsNotAllowed = errors.New("availability: pets are not allowed")
	ErrStayTooShort   = errors.New("availability: stay shorter than minimum")
	ErrStayTooLong    = errors.New("availability: stay longer than maximum")
	ErrDateConflict   = errors.New("availability: dates conflict with an existing booking or block")
)

var reasonErrors = map[Reason]error{
	ReasonInvalidRange:   daterange.ErrInvalidRange,
	ReasonPastDate:       ErrPastDate,
	ReasonInvalidGuests:  booking.ErrInvalidGuests,
	ReasonOverCapacity:   ErrOverCapacity,
	ReasonPetsNotAllowed: ErrPetsNotAllowed,
	ReasonStayTooShort:   ErrStayTooShort,
	ReasonStayTooLong:    ErrStayTooLong,
	ReasonDateConflict:   ErrDateConflict,
}

// ExistingBooking is the slice of a booking the checker needs.
type ExistingBooking struct {
	ID         string
	CampsiteID string
	Range      daterange.DateRange
	Status     booking.Status
}

func FromBooking(b *booking.Booking) ExistingBooking {
	return ExistingBooking{ID: string(b.ID), CampsiteID: b.CampsiteID, Range: b.Range, Status: b.Status}
}

type ConflictKind string

const (
	ConflictBooking ConflictKind = "booking"
	ConflictBlock   ConflictKind = "block"
)

type Conflict struct {
	Kind      ConflictKind
	Reference string
	Range     daterange.DateRange
}

type Request struct {
	CampsiteID  string
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      Guests
	Capacity    int
	MinNights   int
	MaxNights   int
	PetsAllowed bool
	Bookings    []ExistingBooking
	Blocks      []BlockedRange
	Now         time.Time
	// Rules, when set, prices each night of an available stay.
	Rules *pricing.Rules
}

type Result struct {
	Available    bool
	Reason       Reason
	Range        daterange.DateRange
	Conflicts    []Conflict
	Nights       []time.Time
	NightlyRates []pricing.NightlyRate
}

// Err maps an unavailable result onto its sentinel error. Nil when available.
func (r Result) Err() error {
	if r.Available {
		return nil
	}
	if err, ok := reasonErrors[r.Reason]; ok {
		return err
	}
	return ErrDateConflict
}

// Check decides whether a stay can be booked. The first failing rule wins:
// range, past date, guests, capacity, pets, stay length, then date conflicts.
func Check(req Request) Result {
	requested, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return unavailable(ReasonInvalidRange, daterange.DateRange{})
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	if requested.CheckIn.Before(daterange.Day(now)) {
		return unavailable(ReasonPastDate, requested)
	}
	if req.Guests.Validate() != nil {
		return unavailable(ReasonInvalidGuests, requested)
	}
	if req.Guests.Total() > req.Capacity {
		return unavailable(ReasonOverCapacity, requested)
	}
	if req.Guests.Pets > 0 && !req.PetsAllowed {
		return unavailable(ReasonPetsNotAllowed, requested)
	}
	nights := requested.Nights()
	if req.MinNights > 0 && nights < req.MinNights {
		return unavailable(ReasonStayTooShort, requested)
	}
	if req.MaxNights > 0 && nights > req.MaxNights {
		return unavailable(ReasonStayTooLong, requested)
	}

	if conflicts := findConflicts(req, requested); len(conflicts) > 0 {
		res := unavailable(ReasonDateConflict, requested)
		res.Conflicts = conflicts
		return res
	}

	res := Result{Available: true, Range: requested, Nights: requested.EachNight()}
	if req.Rules != nil {
		res.NightlyRates = req.Rules.NightlyRates(requested)
	}
	return res
}

func findConflicts(req Request, requested daterange.DateRange) []Conflict {
	var conflicts []Conflict
	for _, b := range req.Bookings {
		if b.CampsiteID != req.CampsiteID || !b.Status.OccupiesRange() {
			continue
		}
		if b.Range.Overlaps(requested) {
			conflicts = append(conflicts, Conflict{Kind: ConflictBooking, Reference: b.ID, Range: b.Range})
		}
	}
	for _, block := range req.Blocks {
		if block.Range.Overlaps(requested) {
			conflicts = append(conflicts, Conflict{Kind: ConflictBlock, Reference: block.ID, Range: block.Range})
		}
	}
	return conflicts
}

func unavailable(reason Reason, r daterange.DateRange) Result {
	return Result{Reason: reason, Range: r}
}
