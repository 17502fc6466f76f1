package pricing

import (
	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
)

// Calculate prices a stay night by night, then applies fees, tax and eligible discounts.
// Every amount is rounded half away from zero to whole minor units as it is produced.
func Calculate(rules Rules, requested daterange.DateRange, discounts []Discount) (PriceBreakdown, error) {
	dr, err := daterange.New(requested.CheckIn, requested.CheckOut)
	if err != nil {
		return PriceBreakdown{}, err
	}
	if err := rules.Validate(); err != nil {
		return PriceBreakdown{}, err
	}
	currency := rules.Currency()

	nightly := rules.NightlyRates(dr)
	subtotal := money.Zero(currency)
	for _, n := range nightly {
		subtotal.Amount += n.Amount.Amount
	}

	cleaning := money.Money{Amount: rules.CleaningFee.Amount, Currency: currency}
	serviceFee := subtotal.MulRate(rules.ServiceFeeRate)
	taxable := money.Money{Amount: subtotal.Amount + serviceFee.Amount + cleaning.Amount, Currency: currency}
	tax := taxable.MulRate(rules.TaxRate)

	applied := make([]AppliedDiscount, 0, len(discounts))
	discountTotal := money.Zero(currency)
	for _, d := range discounts {
		if !d.Eligible(dr) {
			continue
		}
		amount := d.AmountFor(subtotal)
		if amount.IsZero() {
			continue
		}
		applied = append(applied, AppliedDiscount{Kind: d.Kind, Name: d.Name, Code: d.Code, Amount: amount})
		discountTotal.Amount += amount.Amount
	}

	breakdown := PriceBreakdown{
		Currency:      currency,
		Nights:        len(nightly),
		NightlyRates:  nightly,
		Subtotal:      subtotal,
		CleaningFee:   cleaning,
		ServiceFee:    serviceFee,
		TaxAmount:     tax,
		Discounts:     applied,
		DiscountTotal: discountTotal,
	}
	if err := breakdown.RecalculateTotal(); err != nil {
		return PriceBreakdown{}, err
	}
	return breakdown, nil
}
