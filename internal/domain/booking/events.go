package booking

import (
	"time"

	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
)

const (
	EventRequested  = "booking.requested"
	EventConfirmed  = "booking.confirmed"
	EventCanceled   = "booking.canceled"
	EventRefunded   = "booking.refunded"
	EventCheckedIn  = "booking.checked_in"
	EventCheckedOut = "booking.checked_out"
	EventCompleted  = "booking.completed"
	EventNoShow     = "booking.no_show"
)

type BookingRequested struct {
	BookingID        BookingID
	CampsiteID       string
	GuestID          string
	ConfirmationCode string
	Range            daterange.DateRange
	Guests           Guests
	QuotedPrice      money.Money
	At               time.Time
}

func (e BookingRequested) EventName() string     { return EventRequested }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID  BookingID
	CampsiteID string
	GuestID    string
	Range      daterange.DateRange
	Total      money.Money
	At         time.Time
}

func (e BookingConfirmed) EventName() string     { return EventConfirmed }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCanceled struct {
	BookingID        BookingID
	CampsiteID       string
	GuestID          string
	Policy           CancellationPolicy
	DaysUntil        int
	RefundPercentage int
	Refund           money.Money
	Penalty          money.Money
	By               CancelledBy
	Reason           string
	At               time.Time
}

func (e BookingCanceled) EventName() string     { return EventCanceled }
func (e BookingCanceled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCanceled) OccurredAt() time.Time { return e.At }

type BookingRefunded struct {
	BookingID BookingID
	GuestID   string
	RefundID  string
	Amount    money.Money
	At        time.Time
}

func (e BookingRefunded) EventName() string     { return EventRefunded }
func (e BookingRefunded) AggregateID() string   { return string(e.BookingID) }
func (e BookingRefunded) OccurredAt() time.Time { return e.At }

type CheckInCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e CheckInCompleted) EventName() string     { return EventCheckedIn }
func (e CheckInCompleted) AggregateID() string   { return string(e.BookingID) }
func (e CheckInCompleted) OccurredAt() time.Time { return e.At }

type CheckOutCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e CheckOutCompleted) EventName() string     { return EventCheckedOut }
func (e CheckOutCompleted) AggregateID() string   { return string(e.BookingID) }
func (e CheckOutCompleted) OccurredAt() time.Time { return e.At }

type StayCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e StayCompleted) EventName() string     { return EventCompleted }
func (e StayCompleted) AggregateID() string   { return string(e.BookingID) }
func (e StayCompleted) OccurredAt() time.Time { return e.At }

type NoShowRecorded struct {
	BookingID BookingID
	At        time.Time
}

func (e NoShowRecorded) EventName() string     { return EventNoShow }
func (e NoShowRecorded) AggregateID() string   { return string(e.BookingID) }
func (e NoShowRecorded) OccurredAt() time.Time { return e.At }
