package booking

import (
	"context"
	"log/slog"
	"time"

	"campbook/internal/app/commands"
	"campbook/internal/app/dto"
	"campbook/internal/app/outbox"
	"campbook/internal/app/policies"
	"campbook/internal/app/uow"
	domainbooking "campbook/internal/domain/booking"
)

const (
	ConfirmBookingKey = "booking.confirm"
	CheckInKey        = "booking.check_in"
	CheckOutKey       = "booking.check_out"
	CompleteStayKey   = "booking.complete"
	MarkNoShowKey     = "booking.no_show"
)

type ConfirmBookingCommand struct {
	BookingID string `validate:"required"`
}

func (c ConfirmBookingCommand) Key() string { return ConfirmBookingKey }

type CheckInCommand struct {
	BookingID string `validate:"required"`
}

func (c CheckInCommand) Key() string { return CheckInKey }

type CheckOutCommand struct {
	BookingID string `validate:"required"`
}

func (c CheckOutCommand) Key() string { return CheckOutKey }

type CompleteStayCommand struct {
	BookingID string `validate:"required"`
}

func (c CompleteStayCommand) Key() string { return CompleteStayKey }

type MarkNoShowCommand struct {
	BookingID string `validate:"required"`
}

func (c MarkNoShowCommand) Key() string { return MarkNoShowKey }

// Lifecycle runs the state transitions that need no collaborator beyond payments.
type Lifecycle struct {
	Payments policies.PaymentsPort
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Clock    policies.Clock
	Logger   *slog.Logger
}

func (l *Lifecycle) Confirm(ctx context.Context, cmd ConfirmBookingCommand) (*dto.BookingActionResult, error) {
	return l.transition(ctx, cmd.BookingID, "confirmed", func(b *domainbooking.Booking, now time.Time) error {
		holdID := ""
		if b.Status == domainbooking.StatusPending && b.Price.Total.Amount > 0 && l.Payments != nil {
			var err error
			holdID, err = l.Payments.PlaceHold(ctx, string(b.ID), b.Price.Total)
			if err != nil {
				return err
			}
		}
		return b.Confirm(holdID, now)
	})
}

func (l *Lifecycle) CheckIn(ctx context.Context, cmd CheckInCommand) (*dto.BookingActionResult, error) {
	return l.transition(ctx, cmd.BookingID, "checked in", (*domainbooking.Booking).CheckIn)
}

func (l *Lifecycle) CheckOut(ctx context.Context, cmd CheckOutCommand) (*dto.BookingActionResult, error) {
	return l.transition(ctx, cmd.BookingID, "checked out", (*domainbooking.Booking).CheckOut)
}

func (l *Lifecycle) Complete(ctx context.Context, cmd CompleteStayCommand) (*dto.BookingActionResult, error) {
	return l.transition(ctx, cmd.BookingID, "completed", (*domainbooking.Booking).Complete)
}

func (l *Lifecycle) MarkNoShow(ctx context.Context, cmd MarkNoShowCommand) (*dto.BookingActionResult, error) {
	return l.transition(ctx, cmd.BookingID, "no-show", (*domainbooking.Booking).MarkNoShow)
}

func (l *Lifecycle) transition(ctx context.Context, bookingID, label string, apply func(*domainbooking.Booking, time.Time) error) (*dto.BookingActionResult, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, err
	}
	if err := apply(booking, policies.NowOrSystem(l.Clock)); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, l.Outbox, l.Encoder, booking); err != nil {
		return nil, err
	}
	if l.Logger != nil {
		l.Logger.InfoContext(ctx, "booking "+label, "booking_id", booking.ID, "status", booking.Status)
	}
	return &dto.BookingActionResult{BookingID: string(booking.ID), Status: string(booking.Status)}, nil
}

// Register binds every lifecycle command on reg.
func (l *Lifecycle) Register(reg *commands.Registry) {
	commands.Register[ConfirmBookingCommand, *dto.BookingActionResult](reg, ConfirmBookingKey, commands.HandlerFunc[ConfirmBookingCommand, *dto.BookingActionResult](l.Confirm))
	commands.Register[CheckInCommand, *dto.BookingActionResult](reg, CheckInKey, commands.HandlerFunc[CheckInCommand, *dto.BookingActionResult](l.CheckIn))
	commands.Register[CheckOutCommand, *dto.BookingActionResult](reg, CheckOutKey, commands.HandlerFunc[CheckOutCommand, *dto.BookingActionResult](l.CheckOut))
	commands.Register[CompleteStayCommand, *dto.BookingActionResult](reg, CompleteStayKey, commands.HandlerFunc[CompleteStayCommand, *dto.BookingActionResult](l.Complete))
	commands.Register[MarkNoShowCommand, *dto.BookingActionResult](reg, MarkNoShowKey, commands.HandlerFunc[MarkNoShowCommand, *dto.BookingActionResult](l.MarkNoShow))
}
