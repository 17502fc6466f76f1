package dto

import (
	"time"

	domainbooking "campbook/internal/domain/booking"
)

type GuestsDTO struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Pets     int `json:"pets"`
}

type RefundDTO struct {
	Policy     string   `json:"policy"`
	DaysUntil  int      `json:"days_until_check_in"`
	Percentage int      `json:"refund_percentage"`
	Amount     MoneyDTO `json:"refund_amount"`
	Penalty    MoneyDTO `json:"penalty"`
}

func MapRefund(r domainbooking.Refund) RefundDTO {
	return RefundDTO{
		Policy:     string(r.Policy),
		DaysUntil:  r.DaysUntil,
		Percentage: r.Percentage,
		Amount:     MapMoney(r.Amount),
		Penalty:    MapMoney(r.Penalty),
	}
}

type CancellationDTO struct {
	At       time.Time `json:"at"`
	By       string    `json:"by"`
	Reason   string    `json:"reason,omitempty"`
	Refund   RefundDTO `json:"refund"`
	RefundID string    `json:"refund_id,omitempty"`
}

type Booking struct {
	ID               string           `json:"id"`
	CampsiteID       string           `json:"campsite_id"`
	GuestID          string           `json:"guest_id"`
	ConfirmationCode string           `json:"confirmation_code"`
	Range            DateRangeDTO     `json:"range"`
	Guests           GuestsDTO        `json:"guests"`
	Price            PriceBreakdown   `json:"price"`
	Policy           string           `json:"cancellation_policy"`
	Status           string           `json:"status"`
	Cancellation     *CancellationDTO `json:"cancellation,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	out := Booking{
		ID:               string(b.ID),
		CampsiteID:       b.CampsiteID,
		GuestID:          b.GuestID,
		ConfirmationCode: b.ConfirmationCode,
		Range:            MapRange(b.Range),
		Guests:           GuestsDTO{Adults: b.Guests.Adults, Children: b.Guests.Children, Pets: b.Guests.Pets},
		Price:            MapPriceBreakdown(b.Price),
		Policy:           string(b.Policy),
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if c := b.Cancellation; c != nil {
		out.Cancellation = &CancellationDTO{At: c.At, By: string(c.By), Reason: c.Reason, Refund: MapRefund(c.Refund), RefundID: c.RefundID}
	}
	return out
}

// BookingActionResult is returned by lifecycle commands.
type BookingActionResult struct {
	BookingID string     `json:"booking_id"`
	Status    string     `json:"status"`
	Refund    *RefundDTO `json:"refund,omitempty"`
}
