package dto

import (
	"time"

	"campbook/internal/domain/pricing"
)

type NightlyRateDTO struct {
	Date   string   `json:"date"`
	Amount MoneyDTO `json:"amount"`
	Season string   `json:"season,omitempty"`
}

type AppliedDiscountDTO struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name,omitempty"`
	Code   string   `json:"code,omitempty"`
	Amount MoneyDTO `json:"amount"`
}

type PriceBreakdown struct {
	Currency      string               `json:"currency"`
	Nights        int                  `json:"nights"`
	NightlyRates  []NightlyRateDTO     `json:"nightly_rates"`
	Subtotal      MoneyDTO             `json:"subtotal"`
	CleaningFee   MoneyDTO             `json:"cleaning_fee"`
	ServiceFee    MoneyDTO             `json:"service_fee"`
	TaxAmount     MoneyDTO             `json:"tax_amount"`
	Discounts     []AppliedDiscountDTO `json:"discounts"`
	DiscountTotal MoneyDTO             `json:"discount_total"`
	Total         MoneyDTO             `json:"total"`
}

func MapNightlyRates(rates []pricing.NightlyRate) []NightlyRateDTO {
	out := make([]NightlyRateDTO, 0, len(rates))
	for _, r := range rates {
		out = append(out, NightlyRateDTO{Date: r.Date.Format(time.DateOnly), Amount: MapMoney(r.Amount), Season: r.Season})
	}
	return out
}

func MapPriceBreakdown(p pricing.PriceBreakdown) PriceBreakdown {
	discounts := make([]AppliedDiscountDTO, 0, len(p.Discounts))
	for _, d := range p.Discounts {
		discounts = append(discounts, AppliedDiscountDTO{Kind: string(d.Kind), Name: d.Name, Code: d.Code, Amount: MapMoney(d.Amount)})
	}
	return PriceBreakdown{
		Currency:      p.Currency,
		Nights:        p.Nights,
		NightlyRates:  MapNightlyRates(p.NightlyRates),
		Subtotal:      MapMoney(p.Subtotal),
		CleaningFee:   MapMoney(p.CleaningFee),
		ServiceFee:    MapMoney(p.ServiceFee),
		TaxAmount:     MapMoney(p.TaxAmount),
		Discounts:     discounts,
		DiscountTotal: MapMoney(p.DiscountTotal),
		Total:         MapMoney(p.Total),
	}
}
