package availability

import (
	"time"

	"campbook/internal/domain/shared/daterange"
)

type CalendarBlocked struct {
	CampsiteID string
	BlockID    string
	Range      daterange.DateRange
	Reason     BlockReason
	At         time.Time
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return e.CampsiteID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarUnblocked struct {
	CampsiteID string
	BlockID    string
	Range      daterange.DateRange
	Reason     BlockReason
	At         time.Time
}

func (e CalendarUnblocked) EventName() string     { return "calendar.unblocked" }
func (e CalendarUnblocked) AggregateID() string   { return e.CampsiteID }
func (e CalendarUnblocked) OccurredAt() time.Time { return e.At }

// CalendarOverbookingPrevented is recorded when a booking request loses a date race.
type CalendarOverbookingPrevented struct {
	CampsiteID string
	Range      daterange.DateRange
	At         time.Time
}

func (e CalendarOverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e CalendarOverbookingPrevented) AggregateID() string   { return e.CampsiteID }
func (e CalendarOverbookingPrevented) OccurredAt() time.Time { return e.At }
