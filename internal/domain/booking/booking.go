package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/events"
	"campbook/internal/domain/shared/money"
)

var (
	ErrInvalidGuests       = errors.New("booking: at least one adult is required and counts cannot be negative")
	ErrInvalidState        = errors.New("booking: invalid state transition")
	ErrAlreadyCanceled     = errors.New("booking: already canceled")
	ErrPaymentHoldRequired = errors.New("booking: payment hold required before confirmation")
	ErrBookingNotFound     = errors.New("booking: not found")
	ErrNothingToRefund     = errors.New("booking: nothing to refund")
)

type BookingID string

// Guests is the party size for a stay.
type Guests struct {
	Adults   int
	Children int
	Pets     int
}

// Total counts people; pets are not counted against capacity.
func (g Guests) Total() int {
	return g.Adults + g.Children
}

func (g Guests) Validate() error {
	if g.Adults < 1 || g.Children < 0 || g.Pets < 0 {
		return ErrInvalidGuests
	}
	return nil
}

type CancelledBy string

const (
	CancelledByGuest CancelledBy = "GUEST"
	CancelledByHost  CancelledBy = "HOST"
	CancelledByAdmin CancelledBy = "ADMIN"
)

type Cancellation struct {
	At       time.Time
	By       CancelledBy
	Reason   string
	Refund   Refund
	RefundID string
}

type Booking struct {
	ID               BookingID
	CampsiteID       string
	GuestID          string
	ConfirmationCode string
	Range            daterange.DateRange
	Guests           Guests
	Price            pricing.PriceBreakdown
	Policy           CancellationPolicy
	Status           Status
	PaymentHold      string
	Cancellation     *Cancellation
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByCampsite(ctx context.Context, campsiteID string) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
}

type CreateParams struct {
	ID               BookingID
	CampsiteID       string
	GuestID          string
	ConfirmationCode string
	Range            daterange.DateRange
	Guests           Guests
	Price            pricing.PriceBreakdown
	Policy           CancellationPolicy
	CreatedAt        time.Time
	AllowZero        bool
}

func NewBooking(params CreateParams) (*Booking, error) {
	if err := params.Guests.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, errors.New("booking: guest id required")
	}
	if strings.TrimSpace(params.CampsiteID) == "" {
		return nil, errors.New("booking: campsite id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if !params.Policy.Valid() {
		return nil, ErrUnknownPolicy
	}
	price := params.Price.Copy()
	if err := price.RecalculateTotal(); err != nil {
		return nil, err
	}
	if price.Total.Amount <= 0 && !params.AllowZero {
		return nil, errors.New("booking: total must be positive")
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:               params.ID,
		CampsiteID:       params.CampsiteID,
		GuestID:          params.GuestID,
		ConfirmationCode: params.ConfirmationCode,
		Range:            params.Range,
		Guests:           params.Guests,
		Price:            price,
		Policy:           params.Policy,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	b.Record(BookingRequested{
		BookingID:        b.ID,
		CampsiteID:       b.CampsiteID,
		GuestID:          b.GuestID,
		ConfirmationCode: b.ConfirmationCode,
		Range:            b.Range,
		Guests:           b.Guests,
		QuotedPrice:      b.Price.Total,
		At:               now,
	})
	return b, nil
}

func (b *Booking) Confirm(paymentHoldID string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	if b.Price.Total.Amount > 0 && paymentHoldID == "" {
		return ErrPaymentHoldRequired
	}
	b.PaymentHold = paymentHoldID
	b.transition(StatusConfirmed, now)
	b.Record(BookingConfirmed{BookingID: b.ID, CampsiteID: b.CampsiteID, GuestID: b.GuestID, Range: b.Range, Total: b.Price.Total, At: b.UpdatedAt})
	return nil
}

// RefundPreview resolves the refund a cancellation at `at` would produce without changing state.
func (b *Booking) RefundPreview(at time.Time) (Refund, error) {
	if b.Status.Canceled() {
		return Refund{}, ErrAlreadyCanceled
	}
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return Refund{}, ErrInvalidState
	}
	return ResolveRefund(b.Policy, b.Price.Total, b.Range.CheckIn, at)
}

func (b *Booking) Cancel(by CancelledBy, reason string, now time.Time) (Refund, error) {
	refund, err := b.RefundPreview(now)
	if err != nil {
		return Refund{}, err
	}
	b.Cancellation = &Cancellation{At: now.UTC(), By: by, Reason: reason, Refund: refund}
	b.transition(StatusCanceled, now)
	b.Record(BookingCanceled{
		BookingID:        b.ID,
		CampsiteID:       b.CampsiteID,
		GuestID:          b.GuestID,
		Policy:           refund.Policy,
		DaysUntil:        refund.DaysUntil,
		RefundPercentage: refund.Percentage,
		Refund:           refund.Amount,
		Penalty:          refund.Penalty,
		By:               by,
		Reason:           reason,
		At:               b.UpdatedAt,
	})
	return refund, nil
}

// MarkRefunded records that the payments collaborator returned the refund.
func (b *Booking) MarkRefunded(refundID string, now time.Time) error {
	if b.Status != StatusCanceled || b.Cancellation == nil {
		return ErrInvalidState
	}
	if b.Cancellation.Refund.Amount.Amount <= 0 {
		return ErrNothingToRefund
	}
	b.Cancellation.RefundID = refundID
	b.transition(StatusRefunded, now)
	b.Record(BookingRefunded{BookingID: b.ID, GuestID: b.GuestID, RefundID: refundID, Amount: b.Cancellation.Refund.Amount, At: b.UpdatedAt})
	return nil
}

func (b *Booking) CheckIn(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.transition(StatusCheckedIn, now)
	b.Record(CheckInCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) CheckOut(now time.Time) error {
	if b.Status != StatusCheckedIn {
		return ErrInvalidState
	}
	b.transition(StatusCheckedOut, now)
	b.Record(CheckOutCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusCheckedOut {
		return ErrInvalidState
	}
	b.transition(StatusCompleted, now)
	b.Record(StayCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) MarkNoShow(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	if now.Before(b.Range.CheckIn) {
		return ErrInvalidState
	}
	b.transition(StatusNoShow, now)
	b.Record(NoShowRecorded{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// RefundAmount is zero unless the booking was cancelled.
func (b *Booking) RefundAmount() money.Money {
	if b.Cancellation == nil {
		return money.Zero(b.Price.Currency)
	}
	return b.Cancellation.Refund.Amount
}

func (b *Booking) transition(to Status, now time.Time) {
	b.Status = to
	b.UpdatedAt = now.UTC()
}
