package availability

import (
	"context"
	"errors"
	"strings"
	"time"

	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/events"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: blocked range not found")
	ErrBlockIDRequired  = errors.New("availability: block id required")
)

type BlockReason string

const (
	BlockMaintenance     BlockReason = "MAINTENANCE"
	BlockOwnerUse        BlockReason = "OWNER_USE"
	BlockSeasonalClosure BlockReason = "SEASONAL_CLOSURE"
	BlockWeather         BlockReason = "WEATHER"
)

// BlockedRange is a host-declared unavailable period. Blocks are never edited in place;
// they are added and removed as a whole.
type BlockedRange struct {
	ID         string
	CampsiteID string
	Range      daterange.DateRange
	Reason     BlockReason
	Note       string
	CreatedAt  time.Time
}

// Calendar owns the blocked ranges of one campsite.
type Calendar struct {
	CampsiteID string
	Blocks     []BlockedRange
	Version    int64
	events.EventRecorder
}

type Repository interface {
	Calendar(ctx context.Context, campsiteID string) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(campsiteID string) *Calendar {
	return &Calendar{CampsiteID: campsiteID}
}

// Free reports whether r touches no existing block.
func (c *Calendar) Free(r daterange.DateRange) bool {
	for _, block := range c.Blocks {
		if block.Range.Overlaps(r) {
			return false
		}
	}
	return true
}

func (c *Calendar) Block(id string, r daterange.DateRange, reason BlockReason, note string, now time.Time) (BlockedRange, error) {
	if strings.TrimSpace(id) == "" {
		return BlockedRange{}, ErrBlockIDRequired
	}
	if err := r.Validate(); err != nil {
		return BlockedRange{}, err
	}
	if reason == "" {
		reason = BlockOwnerUse
	}
	if !c.Free(r) {
		return BlockedRange{}, ErrOverlappingRange
	}
	block := BlockedRange{
		ID:         id,
		CampsiteID: c.CampsiteID,
		Range:      r,
		Reason:     reason,
		Note:       note,
		CreatedAt:  now.UTC(),
	}
	c.Blocks = append(c.Blocks, block)
	c.Record(CalendarBlocked{CampsiteID: c.CampsiteID, BlockID: id, Range: r, Reason: reason, At: block.CreatedAt})
	return block, nil
}

func (c *Calendar) Unblock(id string, now time.Time) error {
	idx := -1
	for i, block := range c.Blocks {
		if block.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx:idx], c.Blocks[idx+1:]...)
	c.Record(CalendarUnblocked{CampsiteID: c.CampsiteID, BlockID: id, Range: removed.Range, Reason: removed.Reason, At: now.UTC()})
	return nil
}

// Within returns the blocks overlapping window, or all of them for a zero window.
func (c *Calendar) Within(window daterange.DateRange) []BlockedRange {
	out := make([]BlockedRange, 0, len(c.Blocks))
	for _, block := range c.Blocks {
		if window.CheckIn.IsZero() || block.Range.Overlaps(window) {
			out = append(out, block)
		}
	}
	return out
}

// RejectOverbooking records a refused reservation for r.
func (c *Calendar) RejectOverbooking(r daterange.DateRange, now time.Time) {
	c.Record(CalendarOverbookingPrevented{CampsiteID: c.CampsiteID, Range: r, At: now.UTC()})
}
