package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"campbook/internal/app/commands"
	"campbook/internal/app/dto"
	availabilityhandlers "campbook/internal/app/handlers/availability"
	"campbook/internal/app/middleware"
	"campbook/internal/app/outbox"
	"campbook/internal/app/policies"
	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
	domainpricing "campbook/internal/domain/pricing"
)

const RequestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CampsiteID      string    `validate:"required"`
	GuestID         string    `validate:"required"`
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	Adults          int       `validate:"gte=0"`
	Children        int       `validate:"gte=0"`
	Pets            int       `validate:"gte=0"`
	CouponCode      string    `validate:"max=64"`
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return RequestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.Booking{} }

type RequestBookingHandler struct {
	Pricing domainpricing.Calculator
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

// Handle re-runs the availability check inside the command's unit of work, prices the
// stay and stores a PENDING booking.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.Booking, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	now := policies.NowOrSystem(h.Clock)

	campsite, err := unit.Campsites().ByID(ctx, domaincampsites.CampsiteID(cmd.CampsiteID))
	if err != nil {
		return nil, err
	}
	if err := campsite.EnsureBookable(); err != nil {
		return nil, err
	}

	guests := domainbooking.Guests{Adults: cmd.Adults, Children: cmd.Children, Pets: cmd.Pets}
	check, err := availabilityhandlers.CheckCampsite(ctx, unit, campsite, availabilityhandlers.Stay{
		CheckIn:  cmd.CheckIn,
		CheckOut: cmd.CheckOut,
		Guests:   guests,
	}, now)
	if err != nil {
		return nil, err
	}
	if !check.Available {
		if check.Reason == domainavailability.ReasonDateConflict && h.Logger != nil {
			h.Logger.WarnContext(ctx, "overbooking prevented", "campsite_id", cmd.CampsiteID, "range", check.Range.String(), "conflicts", len(check.Conflicts))
		}
		return nil, &availabilityhandlers.UnavailableError{CampsiteID: cmd.CampsiteID, Result: check}
	}

	price, err := h.Pricing.Quote(ctx, domainpricing.QuoteInput{CampsiteID: cmd.CampsiteID, Range: check.Range, CouponCode: cmd.CouponCode})
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:               domainbooking.BookingID(id.String()),
		CampsiteID:       string(campsite.ID),
		GuestID:          cmd.GuestID,
		ConfirmationCode: ConfirmationCode(id),
		Range:            check.Range,
		Guests:           guests,
		Price:            price,
		Policy:           campsite.CancellationPolicy,
		CreatedAt:        now,
		AllowZero:        true,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}

	// Writing the calendar serializes concurrent requests for the same campsite.
	calendar, err := unit.Calendars().Calendar(ctx, string(campsite.ID))
	if err != nil {
		return nil, err
	}
	if err := unit.Calendars().Save(ctx, calendar); err != nil {
		return nil, err
	}

	if err := outbox.Record(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking requested",
			"booking_id", booking.ID,
			"campsite_id", booking.CampsiteID,
			"confirmation_code", booking.ConfirmationCode,
			"total", booking.Price.Total.String(),
		)
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

// ConfirmationCode derives the guest-facing code from a booking id: CB- plus 8 hex characters.
func ConfirmationCode(id uuid.UUID) string {
	return "CB-" + strings.ToUpper(fmt.Sprintf("%x", id[:4]))
}

var (
	_ commands.Handler[RequestBookingCommand, *dto.Booking] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                          = RequestBookingCommand{}
)
