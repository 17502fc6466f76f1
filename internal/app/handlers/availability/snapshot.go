package availability

import (
	"context"
	"fmt"
	"time"

	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
)

// Stay is the guest-supplied part of an availability request.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   domainbooking.Guests
}

// UnavailableError carries the failed check so transports can report reason and conflicts.
type UnavailableError struct {
	CampsiteID string
	Result     domainavailability.Result
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("campsite %s unavailable: %s", e.CampsiteID, e.Result.Reason)
}

func (e *UnavailableError) Unwrap() error { return e.Result.Err() }

// CheckCampsite loads the bookings and blocks of a campsite from unit and runs the checker.
func CheckCampsite(ctx context.Context, unit uow.UnitOfWork, campsite *domaincampsites.Campsite, stay Stay, now time.Time) (domainavailability.Result, error) {
	bookings, err := unit.Bookings().ListByCampsite(ctx, string(campsite.ID))
	if err != nil {
		return domainavailability.Result{}, err
	}
	calendar, err := unit.Calendars().Calendar(ctx, string(campsite.ID))
	if err != nil {
		return domainavailability.Result{}, err
	}
	existing := make([]domainavailability.ExistingBooking, 0, len(bookings))
	for _, b := range bookings {
		existing = append(existing, domainavailability.FromBooking(b))
	}
	rules := campsite.Pricing
	return domainavailability.Check(domainavailability.Request{
		CampsiteID:  string(campsite.ID),
		CheckIn:     stay.CheckIn,
		CheckOut:    stay.CheckOut,
		Guests:      stay.Guests,
		Capacity:    campsite.MaxGuests,
		MinNights:   campsite.MinNights,
		MaxNights:   campsite.MaxNights,
		PetsAllowed: campsite.PetsAllowed,
		Bookings:    existing,
		Blocks:      calendar.Blocks,
		Now:         now,
		Rules:       &rules,
	}), nil
}
