package pricing

import (
	"context"
	"errors"
	"strings"

	"campbook/internal/app/uow"
	domaincampsites "campbook/internal/domain/campsites"
	domainpricing "campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
)

var ErrCouponNotFound = errors.New("pricing: coupon code not recognised")

// Engine quotes stored campsites. It reuses the unit of work in ctx when there is one.
type Engine struct {
	UoW uow.Factory
}

func (e *Engine) Quote(ctx context.Context, input domainpricing.QuoteInput) (domainpricing.PriceBreakdown, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, e.UoW)
	if err != nil {
		return domainpricing.PriceBreakdown{}, err
	}
	defer release()

	campsite, err := unit.Campsites().ByID(execCtx, domaincampsites.CampsiteID(input.CampsiteID))
	if err != nil {
		return domainpricing.PriceBreakdown{}, err
	}
	return QuoteCampsite(campsite, input.Range, input.CouponCode)
}

// QuoteCampsite prices a stay with the campsite's automatic discounts plus the coupon, if any.
func QuoteCampsite(campsite *domaincampsites.Campsite, r daterange.DateRange, couponCode string) (domainpricing.PriceBreakdown, error) {
	discounts := domainpricing.SelectDiscounts(campsite.Discounts, couponCode)
	if code := strings.TrimSpace(couponCode); code != "" && !hasCode(discounts, code) {
		return domainpricing.PriceBreakdown{}, ErrCouponNotFound
	}
	return domainpricing.Calculate(campsite.Pricing, r, discounts)
}

func hasCode(discounts []domainpricing.Discount, code string) bool {
	for _, d := range discounts {
		if strings.EqualFold(d.Code, code) {
			return true
		}
	}
	return false
}

var _ domainpricing.Calculator = (*Engine)(nil)
