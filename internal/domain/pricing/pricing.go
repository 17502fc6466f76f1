package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
)

// MinNightlyPrice is the lowest nightly price a campsite may charge, in minor units.
const MinNightlyPrice int64 = 1000

var (
	ErrInvalidRules      = errors.New("pricing: invalid pricing rules")
	ErrNegativeComponent = errors.New("pricing: components cannot be negative unless modeled as discount")
	ErrCurrencyUnset     = errors.New("pricing: currency must be defined")
	ErrSeasonalOverlap   = errors.New("pricing: seasonal rates overlap")
)

// SeasonalRate overrides the base nightly price for every night inside Range.
type SeasonalRate struct {
	Name          string
	Range         daterange.DateRange
	PricePerNight money.Money
}

// Rules carries everything needed to price a stay at one campsite.
type Rules struct {
	PricePerNight  money.Money
	CleaningFee    money.Money
	ServiceFeeRate money.Rate
	TaxRate        money.Rate
	SeasonalRates  []SeasonalRate
}

func (r Rules) Currency() string {
	return r.PricePerNight.Currency
}

func (r Rules) Validate() error {
	currency := r.Currency()
	if currency == "" {
		return ErrCurrencyUnset
	}
	if r.PricePerNight.Amount < MinNightlyPrice {
		return fmt.Errorf("%w: price per night below %s", ErrInvalidRules, money.Money{Amount: MinNightlyPrice, Currency: currency})
	}
	if r.CleaningFee.Amount < 0 {
		return fmt.Errorf("%w: cleaning fee is negative", ErrInvalidRules)
	}
	if r.CleaningFee.Currency != "" && r.CleaningFee.Currency != currency {
		return fmt.Errorf("%w: cleaning fee: %w", ErrInvalidRules, money.ErrCurrencyMismatch)
	}
	if err := r.ServiceFeeRate.Validate(); err != nil {
		return fmt.Errorf("%w: service fee rate: %w", ErrInvalidRules, err)
	}
	if err := r.TaxRate.Validate(); err != nil {
		return fmt.Errorf("%w: tax rate: %w", ErrInvalidRules, err)
	}
	seasons := r.sortedSeasons()
	for i, s := range seasons {
		if err := s.Range.Validate(); err != nil {
			return fmt.Errorf("%w: season %q: %w", ErrInvalidRules, s.Name, err)
		}
		if s.PricePerNight.Currency != currency {
			return fmt.Errorf("%w: season %q: %w", ErrInvalidRules, s.Name, money.ErrCurrencyMismatch)
		}
		if s.PricePerNight.Amount < MinNightlyPrice {
			return fmt.Errorf("%w: season %q price below minimum", ErrInvalidRules, s.Name)
		}
		if i > 0 && seasons[i-1].Range.Overlaps(s.Range) {
			return fmt.Errorf("%w: %q and %q", ErrSeasonalOverlap, seasons[i-1].Name, s.Name)
		}
	}
	return nil
}

// RateFor returns the nightly price for the night starting at the given day.
func (r Rules) RateFor(night time.Time) NightlyRate {
	night = daterange.Day(night)
	for _, s := range r.SeasonalRates {
		if s.Range.ContainsDate(night) {
			return NightlyRate{Date: night, Amount: s.PricePerNight, Season: s.Name}
		}
	}
	return NightlyRate{Date: night, Amount: r.PricePerNight}
}

// NightlyRates prices every night of the range individually.
func (r Rules) NightlyRates(dr daterange.DateRange) []NightlyRate {
	nights := dr.EachNight()
	out := make([]NightlyRate, 0, len(nights))
	for _, night := range nights {
		out = append(out, r.RateFor(night))
	}
	return out
}

func (r Rules) sortedSeasons() []SeasonalRate {
	seasons := append([]SeasonalRate(nil), r.SeasonalRates...)
	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].Range.CheckIn.Before(seasons[j].Range.CheckIn)
	})
	return seasons
}

type NightlyRate struct {
	Date   time.Time
	Amount money.Money
	Season string
}

type AppliedDiscount struct {
	Kind   DiscountKind
	Name   string
	Code   string
	Amount money.Money
}

// PriceBreakdown is the priced quote for a stay. Total never drops below zero.
type PriceBreakdown struct {
	Currency      string
	Nights        int
	NightlyRates  []NightlyRate
	Subtotal      money.Money
	CleaningFee   money.Money
	ServiceFee    money.Money
	TaxAmount     money.Money
	Discounts     []AppliedDiscount
	DiscountTotal money.Money
	Total         money.Money
}

func (p *PriceBreakdown) Validate() error {
	if p.Currency == "" {
		return ErrCurrencyUnset
	}
	if p.Nights <= 0 {
		return daterange.ErrInvalidRange
	}
	for _, m := range []money.Money{p.Subtotal, p.CleaningFee, p.ServiceFee, p.TaxAmount, p.DiscountTotal} {
		if m.Amount < 0 {
			return ErrNegativeComponent
		}
	}
	return nil
}

// PreDiscountTotal is subtotal plus fees and taxes.
func (p *PriceBreakdown) PreDiscountTotal() money.Money {
	return money.Money{
		Amount:   p.Subtotal.Amount + p.CleaningFee.Amount + p.ServiceFee.Amount + p.TaxAmount.Amount,
		Currency: p.Currency,
	}
}

// RecalculateTotal clamps the discount total to the pre-discount total and recomputes Total.
// Applied discounts are trimmed in order so they always add up to DiscountTotal; a
// discount left with nothing to take is dropped.
func (p *PriceBreakdown) RecalculateTotal() error {
	if err := p.Validate(); err != nil {
		return err
	}
	gross := p.PreDiscountTotal()
	p.DiscountTotal = money.Money{Amount: p.DiscountTotal.Amount, Currency: p.Currency}.Min(gross)
	if len(p.Discounts) > 0 {
		remaining := p.DiscountTotal.Amount
		trimmed := make([]AppliedDiscount, 0, len(p.Discounts))
		for _, d := range p.Discounts {
			if remaining == 0 {
				break
			}
			d.Amount.Amount = min(d.Amount.Amount, remaining)
			remaining -= d.Amount.Amount
			trimmed = append(trimmed, d)
		}
		p.Discounts = trimmed
		p.DiscountTotal.Amount -= remaining
	}
	p.Total = money.Money{Amount: gross.Amount - p.DiscountTotal.Amount, Currency: p.Currency}
	return nil
}

func (p PriceBreakdown) Copy() PriceBreakdown {
	clone := p
	clone.NightlyRates = append([]NightlyRate(nil), p.NightlyRates...)
	clone.Discounts = append([]AppliedDiscount(nil), p.Discounts...)
	return clone
}

type QuoteInput struct {
	CampsiteID string
	Range      daterange.DateRange
	CouponCode string
}

// Calculator quotes a stay for a stored campsite.
type Calculator interface {
	Quote(ctx context.Context, input QuoteInput) (PriceBreakdown, error)
}
