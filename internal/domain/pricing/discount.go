package pricing

import (
	"strings"
	"time"

	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
)

type DiscountKind string

const (
	DiscountEarlyBird  DiscountKind = "early_bird"
	DiscountLongStay   DiscountKind = "long_stay"
	DiscountLastMinute DiscountKind = "last_minute"
	DiscountSeasonal   DiscountKind = "seasonal"
	DiscountCoupon     DiscountKind = "coupon"
	DiscountMembership DiscountKind = "membership"
)

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

// Discount is either a flat amount or a fraction of the subtotal. Zero-valued
// eligibility fields mean "no restriction".
type Discount struct {
	Kind       DiscountKind
	Name       string
	Code       string
	Type       DiscountType
	Amount     money.Money
	Percentage money.Rate
	MinNights  int
	ValidFrom  time.Time
	ValidTo    time.Time
}

// Eligible reports whether the stay meets the discount's stated conditions.
func (d Discount) Eligible(dr daterange.DateRange) bool {
	if d.MinNights > 0 && dr.Nights() < d.MinNights {
		return false
	}
	checkIn := daterange.Day(dr.CheckIn)
	if !d.ValidFrom.IsZero() && checkIn.Before(daterange.Day(d.ValidFrom)) {
		return false
	}
	if !d.ValidTo.IsZero() && checkIn.After(daterange.Day(d.ValidTo)) {
		return false
	}
	return true
}

// AmountFor computes the discount against a subtotal; negative results are floored at zero.
func (d Discount) AmountFor(subtotal money.Money) money.Money {
	var amount money.Money
	switch d.Type {
	case DiscountPercentage:
		amount = subtotal.MulRate(d.Percentage)
	default:
		amount = money.Money{Amount: d.Amount.Amount, Currency: subtotal.Currency}
	}
	if amount.Amount < 0 {
		amount.Amount = 0
	}
	return amount
}

// SelectDiscounts keeps automatic discounts and the coupon matching code, if any.
func SelectDiscounts(all []Discount, code string) []Discount {
	code = strings.TrimSpace(code)
	out := make([]Discount, 0, len(all))
	for _, d := range all {
		if d.Kind == DiscountCoupon || d.Code != "" {
			if code == "" || !strings.EqualFold(d.Code, code) {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}
