package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"campbook/internal/app/policies"
	domainbooking "campbook/internal/domain/booking"
)

// BookingEvents turns booking domain events into guest notifications. Events it has no
// template for are acknowledged and skipped.
type BookingEvents struct {
	Notifier policies.Notifier
	Logger   *slog.Logger
}

func (h *BookingEvents) Handle(ctx context.Context, name string, payload []byte) error {
	switch name {
	case domainbooking.EventRequested:
		var ev domainbooking.BookingRequested
		if err := decode(name, payload, &ev); err != nil {
			return err
		}
		return h.send(ctx, ev.GuestID, policies.TemplateBookingRequested, map[string]any{
			"booking_id":        ev.BookingID,
			"confirmation_code": ev.ConfirmationCode,
			"campsite_id":       ev.CampsiteID,
			"range":             ev.Range.String(),
			"total":             ev.QuotedPrice.String(),
		})
	case domainbooking.EventConfirmed:
		var ev domainbooking.BookingConfirmed
		if err := decode(name, payload, &ev); err != nil {
			return err
		}
		return h.send(ctx, ev.GuestID, policies.TemplateBookingConfirmed, map[string]any{
			"booking_id": ev.BookingID,
			"range":      ev.Range.String(),
			"total":      ev.Total.String(),
		})
	case domainbooking.EventCanceled:
		var ev domainbooking.BookingCanceled
		if err := decode(name, payload, &ev); err != nil {
			return err
		}
		return h.send(ctx, ev.GuestID, policies.TemplateBookingCanceled, map[string]any{
			"booking_id":        ev.BookingID,
			"policy":            ev.Policy,
			"refund_percentage": ev.RefundPercentage,
			"refund":            ev.Refund.String(),
		})
	case domainbooking.EventRefunded:
		var ev domainbooking.BookingRefunded
		if err := decode(name, payload, &ev); err != nil {
			return err
		}
		return h.send(ctx, ev.GuestID, policies.TemplateRefundIssued, map[string]any{
			"booking_id": ev.BookingID,
			"refund_id":  ev.RefundID,
			"amount":     ev.Amount.String(),
		})
	default:
		if h.Logger != nil {
			h.Logger.DebugContext(ctx, "event skipped", "event", name)
		}
		return nil
	}
}

func (h *BookingEvents) send(ctx context.Context, to, template string, data map[string]any) error {
	if h.Notifier == nil || to == "" {
		return nil
	}
	return h.Notifier.Send(ctx, to, template, data)
}

func decode(name string, payload []byte, out any) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("notifications: decode %s: %w", name, err)
	}
	return nil
}
