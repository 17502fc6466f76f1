package booking

import (
	"context"
	"time"

	"campbook/internal/app/dto"
	"campbook/internal/app/policies"
	"campbook/internal/app/queries"
	"campbook/internal/app/uow"
	domainbooking "campbook/internal/domain/booking"
)

const (
	GetBookingKey    = "booking.get"
	RefundPreviewKey = "booking.refund_preview"
)

type GetBookingQuery struct {
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string { return GetBookingKey }

type GetBookingHandler struct {
	UoW uow.Factory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoW)
	if err != nil {
		return dto.Booking{}, err
	}
	defer release()

	booking, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	return dto.MapBooking(booking), nil
}

// RefundPreviewQuery asks what a cancellation at At would refund. A zero At means now.
type RefundPreviewQuery struct {
	BookingID string `validate:"required"`
	At        time.Time
}

func (q RefundPreviewQuery) Key() string { return RefundPreviewKey }

type RefundPreviewHandler struct {
	UoW   uow.Factory
	Clock policies.Clock
}

func (h *RefundPreviewHandler) Handle(ctx context.Context, q RefundPreviewQuery) (dto.RefundDTO, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoW)
	if err != nil {
		return dto.RefundDTO{}, err
	}
	defer release()

	booking, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.RefundDTO{}, err
	}
	at := q.At
	if at.IsZero() {
		at = policies.NowOrSystem(h.Clock)
	}
	refund, err := booking.RefundPreview(at)
	if err != nil {
		return dto.RefundDTO{}, err
	}
	return dto.MapRefund(refund), nil
}

var (
	_ queries.Handler[GetBookingQuery, dto.Booking]      = (*GetBookingHandler)(nil)
	_ queries.Handler[RefundPreviewQuery, dto.RefundDTO] = (*RefundPreviewHandler)(nil)
)
