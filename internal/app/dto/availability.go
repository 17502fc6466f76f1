package dto

import (
	"time"

	"campbook/internal/domain/availability"
)

type ConflictDTO struct {
	Kind      string       `json:"kind"`
	Reference string       `json:"reference"`
	Range     DateRangeDTO `json:"range"`
}

type AvailabilityResult struct {
	CampsiteID   string           `json:"campsite_id"`
	Available    bool             `json:"available"`
	Reason       string           `json:"reason,omitempty"`
	Range        *DateRangeDTO    `json:"range,omitempty"`
	Conflicts    []ConflictDTO    `json:"conflicts,omitempty"`
	Nights       []string         `json:"nights,omitempty"`
	NightlyRates []NightlyRateDTO `json:"nightly_rates,omitempty"`
}

func MapAvailability(campsiteID string, res availability.Result) AvailabilityResult {
	out := AvailabilityResult{CampsiteID: campsiteID, Available: res.Available, Reason: string(res.Reason)}
	if !res.Range.CheckIn.IsZero() {
		r := MapRange(res.Range)
		out.Range = &r
	}
	for _, c := range res.Conflicts {
		out.Conflicts = append(out.Conflicts, ConflictDTO{Kind: string(c.Kind), Reference: c.Reference, Range: MapRange(c.Range)})
	}
	for _, n := range res.Nights {
		out.Nights = append(out.Nights, n.Format(time.DateOnly))
	}
	if len(res.NightlyRates) > 0 {
		out.NightlyRates = MapNightlyRates(res.NightlyRates)
	}
	return out
}

type CalendarBlock struct {
	ID        string       `json:"id"`
	Range     DateRangeDTO `json:"range"`
	Reason    string       `json:"reason"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type CalendarBooking struct {
	BookingID string       `json:"booking_id"`
	Status    string       `json:"status"`
	Range     DateRangeDTO `json:"range"`
}

// Calendar lists what occupies a campsite: host blocks and range-holding bookings.
type Calendar struct {
	CampsiteID string            `json:"campsite_id"`
	Blocks     []CalendarBlock   `json:"blocks"`
	Bookings   []CalendarBooking `json:"bookings"`
}

func MapBlock(b availability.BlockedRange) CalendarBlock {
	return CalendarBlock{ID: b.ID, Range: MapRange(b.Range), Reason: string(b.Reason), Note: b.Note, CreatedAt: b.CreatedAt}
}
