package availability

import (
	"context"
	"sort"
	"time"

	"campbook/internal/app/dto"
	"campbook/internal/app/queries"
	"campbook/internal/app/uow"
	domaincampsites "campbook/internal/domain/campsites"
	"campbook/internal/domain/shared/daterange"
)

const GetCalendarKey = "availability.calendar"

// GetCalendarQuery lists occupancy; a zero From/To returns everything.
type GetCalendarQuery struct {
	CampsiteID string `validate:"required"`
	From       time.Time
	To         time.Time
}

func (q GetCalendarQuery) Key() string { return GetCalendarKey }

type GetCalendarHandler struct {
	UoW uow.Factory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoW)
	if err != nil {
		return dto.Calendar{}, err
	}
	defer release()

	if _, err := unit.Campsites().ByID(execCtx, domaincampsites.CampsiteID(q.CampsiteID)); err != nil {
		return dto.Calendar{}, err
	}
	var window daterange.DateRange
	if !q.From.IsZero() && !q.To.IsZero() {
		window, err = daterange.New(q.From, q.To)
		if err != nil {
			return dto.Calendar{}, err
		}
	}

	calendar, err := unit.Calendars().Calendar(execCtx, q.CampsiteID)
	if err != nil {
		return dto.Calendar{}, err
	}
	bookings, err := unit.Bookings().ListByCampsite(execCtx, q.CampsiteID)
	if err != nil {
		return dto.Calendar{}, err
	}

	out := dto.Calendar{CampsiteID: q.CampsiteID, Blocks: []dto.CalendarBlock{}, Bookings: []dto.CalendarBooking{}}
	for _, block := range calendar.Within(window) {
		out.Blocks = append(out.Blocks, dto.MapBlock(block))
	}
	for _, b := range bookings {
		if !b.Status.OccupiesRange() {
			continue
		}
		if !window.CheckIn.IsZero() && !b.Range.Overlaps(window) {
			continue
		}
		out.Bookings = append(out.Bookings, dto.CalendarBooking{BookingID: string(b.ID), Status: string(b.Status), Range: dto.MapRange(b.Range)})
	}
	sort.Slice(out.Blocks, func(i, j int) bool { return out.Blocks[i].Range.CheckIn < out.Blocks[j].Range.CheckIn })
	sort.Slice(out.Bookings, func(i, j int) bool { return out.Bookings[i].Range.CheckIn < out.Bookings[j].Range.CheckIn })
	return out, nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
