package policies

import "context"

// Notification templates sent to guests.
const (
	TemplateBookingRequested = "booking_requested"
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingCanceled  = "booking_canceled"
	TemplateRefundIssued     = "refund_issued"
)

type Notifier interface {
	Send(ctx context.Context, to string, template string, data any) error
}
