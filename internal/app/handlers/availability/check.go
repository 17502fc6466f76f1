package availability

import (
	"context"
	"time"

	"campbook/internal/app/dto"
	"campbook/internal/app/policies"
	"campbook/internal/app/queries"
	"campbook/internal/app/uow"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
)

const CheckAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	CampsiteID string    `validate:"required"`
	CheckIn    time.Time `validate:"required"`
	CheckOut   time.Time `validate:"required"`
	Adults     int       `validate:"gte=0"`
	Children   int       `validate:"gte=0"`
	Pets       int       `validate:"gte=0"`
}

func (q CheckAvailabilityQuery) Key() string { return CheckAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoW   uow.Factory
	Clock policies.Clock
}

// Handle reports unavailability in the result rather than as an error.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityResult, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoW)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	defer release()

	campsite, err := unit.Campsites().ByID(execCtx, domaincampsites.CampsiteID(q.CampsiteID))
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	if err := campsite.EnsureBookable(); err != nil {
		return dto.AvailabilityResult{}, err
	}
	res, err := CheckCampsite(execCtx, unit, campsite, Stay{
		CheckIn:  q.CheckIn,
		CheckOut: q.CheckOut,
		Guests:   domainbooking.Guests{Adults: q.Adults, Children: q.Children, Pets: q.Pets},
	}, policies.NowOrSystem(h.Clock))
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	return dto.MapAvailability(q.CampsiteID, res), nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityResult] = (*CheckAvailabilityHandler)(nil)
