package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"campbook/internal/app/uow"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
	domainpricing "campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
)

type campsiteFixture struct {
	ID                 string            `json:"id"`
	OwnerID            string            `json:"owner_id"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	Category           string            `json:"category"`
	Location           locationFixture   `json:"location"`
	Amenities          []string          `json:"amenities"`
	MaxGuests          int               `json:"max_guests"`
	PetsAllowed        bool              `json:"pets_allowed"`
	MinNights          int               `json:"min_nights"`
	MaxNights          int               `json:"max_nights"`
	CancellationPolicy string            `json:"cancellation_policy"`
	Featured           bool              `json:"featured"`
	Rating             float64           `json:"rating"`
	Draft              bool              `json:"draft"`
	Pricing            pricingFixture    `json:"pricing"`
	Discounts          []discountFixture `json:"discounts"`
}

type locationFixture struct {
	City    string  `json:"city"`
	State   string  `json:"state"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type pricingFixture struct {
	Currency           string          `json:"currency"`
	PricePerNightCents int64           `json:"price_per_night_cents"`
	CleaningFeeCents   int64           `json:"cleaning_fee_cents"`
	ServiceFeeRate     float64         `json:"service_fee_rate"`
	TaxRate            float64         `json:"tax_rate"`
	Seasons            []seasonFixture `json:"seasons"`
}

type seasonFixture struct {
	Name               string `json:"name"`
	From               string `json:"from"`
	To                 string `json:"to"`
	PricePerNightCents int64  `json:"price_per_night_cents"`
}

type discountFixture struct {
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Type        string  `json:"type"`
	AmountCents int64   `json:"amount_cents"`
	Percentage  float64 `json:"percentage"`
	MinNights   int     `json:"min_nights"`
	ValidFrom   string  `json:"valid_from"`
	ValidTo     string  `json:"valid_to"`
}

// Loader seeds the campsite catalog. Campsites that already exist are left untouched.
type Loader struct {
	UoW             uow.Factory
	DefaultCurrency string
	Logger          *slog.Logger
	Now             func() time.Time
}

// LoadFile imports the fixtures at path. A missing file is not an error.
func (l Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.log().Info("campsite fixtures not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("fixtures: open: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load imports every fixture in one unit of work. Invalid entries are logged and skipped.
func (l Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	var items []campsiteFixture
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("fixtures: decode: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	unit, execCtx, err := uow.Start(ctx, l.UoW, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	imported := 0
	for _, fx := range items {
		ok, err := l.importOne(execCtx, unit, fx)
		if err != nil {
			_ = unit.Rollback(execCtx)
			return 0, err
		}
		if ok {
			imported++
		}
	}
	if err := unit.Commit(execCtx); err != nil {
		return 0, err
	}
	return imported, nil
}

func (l Loader) importOne(ctx context.Context, unit uow.UnitOfWork, fx campsiteFixture) (bool, error) {
	_, err := unit.Campsites().ByID(ctx, domaincampsites.CampsiteID(fx.ID))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, domaincampsites.ErrCampsiteNotFound):
		return false, err
	}

	now := l.now()
	site, err := l.build(fx, now)
	if err != nil {
		l.log().Warn("campsite fixture invalid", "campsite_id", fx.ID, "error", err)
		return false, nil
	}
	if !fx.Draft {
		if err := site.Activate(now); err != nil {
			l.log().Warn("campsite fixture activation failed", "campsite_id", fx.ID, "error", err)
			return false, nil
		}
	}
	// Fixture creation events are not relayed.
	site.Drain()
	if err := unit.Campsites().Save(ctx, site); err != nil {
		return false, err
	}
	l.log().Debug("campsite fixture imported", "campsite_id", fx.ID)
	return true, nil
}

func (l Loader) build(fx campsiteFixture, now time.Time) (*domaincampsites.Campsite, error) {
	currency := strings.ToUpper(strings.TrimSpace(fx.Pricing.Currency))
	if currency == "" {
		currency = l.DefaultCurrency
	}
	rules := domainpricing.Rules{
		PricePerNight:  money.Money{Amount: fx.Pricing.PricePerNightCents, Currency: currency},
		CleaningFee:    money.Money{Amount: fx.Pricing.CleaningFeeCents, Currency: currency},
		ServiceFeeRate: money.RateFromFloat(fx.Pricing.ServiceFeeRate),
		TaxRate:        money.RateFromFloat(fx.Pricing.TaxRate),
	}
	for _, s := range fx.Pricing.Seasons {
		from, err := parseDate(s.From)
		if err != nil {
			return nil, err
		}
		to, err := parseDate(s.To)
		if err != nil {
			return nil, err
		}
		r, err := daterange.New(from, to)
		if err != nil {
			return nil, fmt.Errorf("season %q: %w", s.Name, err)
		}
		rules.SeasonalRates = append(rules.SeasonalRates, domainpricing.SeasonalRate{
			Name:          s.Name,
			Range:         r,
			PricePerNight: money.Money{Amount: s.PricePerNightCents, Currency: currency},
		})
	}

	discounts := make([]domainpricing.Discount, 0, len(fx.Discounts))
	for _, d := range fx.Discounts {
		from, err := parseDate(d.ValidFrom)
		if err != nil {
			return nil, err
		}
		to, err := parseDate(d.ValidTo)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, domainpricing.Discount{
			Kind:       domainpricing.DiscountKind(d.Kind),
			Name:       d.Name,
			Code:       d.Code,
			Type:       domainpricing.DiscountType(d.Type),
			Amount:     money.Money{Amount: d.AmountCents, Currency: currency},
			Percentage: money.RateFromFloat(d.Percentage),
			MinNights:  d.MinNights,
			ValidFrom:  from,
			ValidTo:    to,
		})
	}

	return domaincampsites.NewCampsite(domaincampsites.CreateParams{
		ID:          domaincampsites.CampsiteID(fx.ID),
		OwnerID:     fx.OwnerID,
		Name:        fx.Name,
		Description: fx.Description,
		Category:    domaincampsites.Category(fx.Category),
		Location: domaincampsites.Location{
			City:    fx.Location.City,
			State:   fx.Location.State,
			Country: fx.Location.Country,
			Lat:     fx.Location.Lat,
			Lon:     fx.Location.Lon,
		},
		Amenities:          append([]string(nil), fx.Amenities...),
		MaxGuests:          fx.MaxGuests,
		PetsAllowed:        fx.PetsAllowed,
		MinNights:          fx.MinNights,
		MaxNights:          fx.MaxNights,
		CancellationPolicy: domainbooking.CancellationPolicy(strings.ToUpper(fx.CancellationPolicy)),
		Pricing:            rules,
		Discounts:          discounts,
		Featured:           fx.Featured,
		Rating:             fx.Rating,
		Now:                now,
	})
}

func parseDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}

func (l Loader) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l Loader) log() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
