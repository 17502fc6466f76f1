package dto

import (
	domaincampsites "campbook/internal/domain/campsites"
)

type SeasonalRateDTO struct {
	Name          string       `json:"name"`
	Range         DateRangeDTO `json:"range"`
	PricePerNight MoneyDTO     `json:"price_per_night"`
}

type CampsiteSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Category      string   `json:"category"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	MaxGuests     int      `json:"max_guests"`
	PetsAllowed   bool     `json:"pets_allowed"`
	PricePerNight MoneyDTO `json:"price_per_night"`
	Rating        float64  `json:"rating"`
	Featured      bool     `json:"featured"`
}

type Campsite struct {
	CampsiteSummary
	Description        string            `json:"description"`
	Country            string            `json:"country"`
	Amenities          []string          `json:"amenities"`
	MinNights          int               `json:"min_nights"`
	MaxNights          int               `json:"max_nights,omitempty"`
	CancellationPolicy string            `json:"cancellation_policy"`
	CleaningFee        MoneyDTO          `json:"cleaning_fee"`
	ServiceFeeRate     string            `json:"service_fee_rate"`
	TaxRate            string            `json:"tax_rate"`
	SeasonalRates      []SeasonalRateDTO `json:"seasonal_rates"`
	Status             string            `json:"status"`
}

type CampsiteCollection struct {
	Items  []CampsiteSummary `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func MapCampsiteSummary(c *domaincampsites.Campsite) CampsiteSummary {
	return CampsiteSummary{
		ID:            string(c.ID),
		Name:          c.Name,
		Slug:          c.Slug,
		Category:      string(c.Category),
		City:          c.Location.City,
		State:         c.Location.State,
		MaxGuests:     c.MaxGuests,
		PetsAllowed:   c.PetsAllowed,
		PricePerNight: MapMoney(c.Pricing.PricePerNight),
		Rating:        c.Rating,
		Featured:      c.Featured,
	}
}

func MapCampsite(c *domaincampsites.Campsite) Campsite {
	seasons := make([]SeasonalRateDTO, 0, len(c.Pricing.SeasonalRates))
	for _, s := range c.Pricing.SeasonalRates {
		seasons = append(seasons, SeasonalRateDTO{Name: s.Name, Range: MapRange(s.Range), PricePerNight: MapMoney(s.PricePerNight)})
	}
	return Campsite{
		CampsiteSummary:    MapCampsiteSummary(c),
		Description:        c.Description,
		Country:            c.Location.Country,
		Amenities:          append([]string{}, c.Amenities...),
		MinNights:          c.MinNights,
		MaxNights:          c.MaxNights,
		CancellationPolicy: string(c.CancellationPolicy),
		CleaningFee:        MapMoney(c.Pricing.CleaningFee),
		ServiceFeeRate:     c.Pricing.ServiceFeeRate.String(),
		TaxRate:            c.Pricing.TaxRate.String(),
		SeasonalRates:      seasons,
		Status:             string(c.State),
	}
}
