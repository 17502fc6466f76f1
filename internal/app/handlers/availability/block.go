package availability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campbook/internal/app/commands"
	"campbook/internal/app/dto"
	"campbook/internal/app/outbox"
	"campbook/internal/app/policies"
	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domaincampsites "campbook/internal/domain/campsites"
	"campbook/internal/domain/shared/daterange"
)

const (
	BlockDatesKey   = "availability.block"
	UnblockDatesKey = "availability.unblock"
)

type BlockDatesCommand struct {
	CampsiteID string    `validate:"required"`
	CheckIn    time.Time `validate:"required"`
	CheckOut   time.Time `validate:"required"`
	Reason     string    `validate:"omitempty,oneof=MAINTENANCE OWNER_USE SEASONAL_CLOSURE WEATHER"`
	Note       string    `validate:"max=280"`
}

func (c BlockDatesCommand) Key() string { return BlockDatesKey }

type UnblockDatesCommand struct {
	CampsiteID string `validate:"required"`
	BlockID    string `validate:"required"`
}

func (c UnblockDatesCommand) Key() string { return UnblockDatesKey }

type BlockDatesHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

// Handle refuses to block nights already held by a booking.
func (h *BlockDatesHandler) Handle(ctx context.Context, cmd BlockDatesCommand) (*dto.CalendarBlock, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := unit.Campsites().ByID(ctx, domaincampsites.CampsiteID(cmd.CampsiteID)); err != nil {
		return nil, err
	}
	r, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	bookings, err := unit.Bookings().ListByCampsite(ctx, cmd.CampsiteID)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if b.Status.OccupiesRange() && b.Range.Overlaps(r) {
			return nil, domainavailability.ErrDateConflict
		}
	}

	calendar, err := unit.Calendars().Calendar(ctx, cmd.CampsiteID)
	if err != nil {
		return nil, err
	}
	block, err := calendar.Block(uuid.NewString(), r, domainavailability.BlockReason(cmd.Reason), cmd.Note, policies.NowOrSystem(h.Clock))
	if err != nil {
		return nil, err
	}
	if err := unit.Calendars().Save(ctx, calendar); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, calendar); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "dates blocked", "campsite_id", cmd.CampsiteID, "block_id", block.ID, "range", r.String())
	}
	out := dto.MapBlock(block)
	return &out, nil
}

type UnblockDatesHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *UnblockDatesHandler) Handle(ctx context.Context, cmd UnblockDatesCommand) (*dto.Calendar, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	calendar, err := unit.Calendars().Calendar(ctx, cmd.CampsiteID)
	if err != nil {
		return nil, err
	}
	if err := calendar.Unblock(cmd.BlockID, policies.NowOrSystem(h.Clock)); err != nil {
		return nil, err
	}
	if err := unit.Calendars().Save(ctx, calendar); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, calendar); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "dates unblocked", "campsite_id", cmd.CampsiteID, "block_id", cmd.BlockID)
	}
	out := dto.Calendar{CampsiteID: cmd.CampsiteID, Blocks: []dto.CalendarBlock{}, Bookings: []dto.CalendarBooking{}}
	for _, b := range calendar.Blocks {
		out.Blocks = append(out.Blocks, dto.MapBlock(b))
	}
	return &out, nil
}

var (
	_ commands.Handler[BlockDatesCommand, *dto.CalendarBlock] = (*BlockDatesHandler)(nil)
	_ commands.Handler[UnblockDatesCommand, *dto.Calendar]    = (*UnblockDatesHandler)(nil)
)
