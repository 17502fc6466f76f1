package campsites

import (
	"context"

	"campbook/internal/app/dto"
	"campbook/internal/app/queries"
	"campbook/internal/app/uow"
	domaincampsites "campbook/internal/domain/campsites"
)

const (
	ListCampsitesKey = "campsites.list"
	GetCampsiteKey   = "campsites.get"
)

type ListCampsitesQuery struct {
	Query     string `validate:"max=120"`
	Category  string `validate:"omitempty,oneof=tent rv cabin glamping"`
	City      string
	State     string
	MinGuests int `validate:"gte=0"`
	PetsOnly  bool
	Sort      string `validate:"omitempty,oneof=featured price_asc price_desc rating_desc"`
	Limit     int    `validate:"gte=0,lte=60"`
	Offset    int    `validate:"gte=0"`
}

func (q ListCampsitesQuery) Key() string { return ListCampsitesKey }

type ListCampsitesHandler struct {
	UoW uow.Factory
}

func (h *ListCampsitesHandler) Handle(ctx context.Context, q ListCampsitesQuery) (dto.CampsiteCollection, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoW)
	if err != nil {
		return dto.CampsiteCollection{}, err
	}
	defer release()

	params := domaincampsites.ListParams{
		Query:      q.Query,
		Category:   domaincampsites.Category(q.Category),
		City:       q.City,
		State:      q.State,
		MinGuests:  q.MinGuests,
		PetsOnly:   q.PetsOnly,
		OnlyActive: true,
		Sort:       domaincampsites.SortOrder(q.Sort),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}.Normalized()
	res, err := unit.Campsites().List(execCtx, params)
	if err != nil {
		return dto.CampsiteCollection{}, err
	}
	items := make([]dto.CampsiteSummary, 0, len(res.Items))
	for _, c := range res.Items {
		items = append(items, dto.MapCampsiteSummary(c))
	}
	return dto.CampsiteCollection{Items: items, Total: res.Total, Limit: params.Limit, Offset: params.Offset}, nil
}

type GetCampsiteQuery struct {
	CampsiteID string `validate:"required"`
}

func (q GetCampsiteQuery) Key() string { return GetCampsiteKey }

type GetCampsiteHandler struct {
	UoW uow.Factory
}

func (h *GetCampsiteHandler) Handle(ctx context.Context, q GetCampsiteQuery) (dto.Campsite, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoW)
	if err != nil {
		return dto.Campsite{}, err
	}
	defer release()

	c, err := unit.Campsites().ByID(execCtx, domaincampsites.CampsiteID(q.CampsiteID))
	if err != nil {
		return dto.Campsite{}, err
	}
	return dto.MapCampsite(c), nil
}

var (
	_ queries.Handler[ListCampsitesQuery, dto.CampsiteCollection] = (*ListCampsitesHandler)(nil)
	_ queries.Handler[GetCampsiteQuery, dto.Campsite]             = (*GetCampsiteHandler)(nil)
)
