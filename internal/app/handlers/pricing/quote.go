package pricing

import (
	"context"
	"time"

	"campbook/internal/app/dto"
	"campbook/internal/app/queries"
	domainpricing "campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
)

const QuoteKey = "pricing.quote"

type QuoteQuery struct {
	CampsiteID string    `validate:"required"`
	CheckIn    time.Time `validate:"required"`
	CheckOut   time.Time `validate:"required"`
	CouponCode string    `validate:"max=64"`
}

func (q QuoteQuery) Key() string { return QuoteKey }

type QuoteHandler struct {
	Pricing domainpricing.Calculator
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.PriceBreakdown, error) {
	r, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.PriceBreakdown{}, err
	}
	breakdown, err := h.Pricing.Quote(ctx, domainpricing.QuoteInput{CampsiteID: q.CampsiteID, Range: r, CouponCode: q.CouponCode})
	if err != nil {
		return dto.PriceBreakdown{}, err
	}
	return dto.MapPriceBreakdown(breakdown), nil
}

var _ queries.Handler[QuoteQuery, dto.PriceBreakdown] = (*QuoteHandler)(nil)
