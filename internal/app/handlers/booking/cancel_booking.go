package booking

import (
	"context"
	"log/slog"
	"strings"

	"campbook/internal/app/commands"
	"campbook/internal/app/dto"
	"campbook/internal/app/outbox"
	"campbook/internal/app/policies"
	"campbook/internal/app/uow"
	domainbooking "campbook/internal/domain/booking"
)

const CancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	By        string `validate:"omitempty,oneof=GUEST HOST ADMIN"`
	Reason    string `validate:"max=500"`
}

func (c CancelBookingCommand) Key() string { return CancelBookingKey }

type CancelBookingHandler struct {
	Payments policies.PaymentsPort
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Clock    policies.Clock
	Logger   *slog.Logger
}

// Handle cancels under the booking's policy and, when money is due back, refunds it
// through the payments port before marking the booking REFUNDED.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.BookingActionResult, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	by := domainbooking.CancelledBy(strings.ToUpper(strings.TrimSpace(cmd.By)))
	if by == "" {
		by = domainbooking.CancelledByGuest
	}
	now := policies.NowOrSystem(h.Clock)

	refund, err := booking.Cancel(by, strings.TrimSpace(cmd.Reason), now)
	if err != nil {
		return nil, err
	}
	if refund.Amount.Amount > 0 && h.Payments != nil {
		refundID, err := h.Payments.Refund(ctx, string(booking.ID), refund.Amount)
		if err != nil {
			return nil, err
		}
		if err := booking.MarkRefunded(refundID, now); err != nil {
			return nil, err
		}
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking canceled",
			"booking_id", booking.ID,
			"policy", refund.Policy,
			"days_until", refund.DaysUntil,
			"refund_percentage", refund.Percentage,
			"refund", refund.Amount.String(),
		)
	}
	mapped := dto.MapRefund(refund)
	return &dto.BookingActionResult{BookingID: string(booking.ID), Status: string(booking.Status), Refund: &mapped}, nil
}

var _ commands.Handler[CancelBookingCommand, *dto.BookingActionResult] = (*CancelBookingHandler)(nil)
