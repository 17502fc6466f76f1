package memory

import (
	"context"
	"sort"
	"sync"

	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
	"campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/events"
)

// CampsiteRepository keeps campsites in memory. Stored values are copies.
type CampsiteRepository struct {
	mu    sync.RWMutex
	items map[domaincampsites.CampsiteID]*domaincampsites.Campsite
}

func NewCampsiteRepository() *CampsiteRepository {
	return &CampsiteRepository{items: make(map[domaincampsites.CampsiteID]*domaincampsites.Campsite)}
}

func (r *CampsiteRepository) ByID(ctx context.Context, id domaincampsites.CampsiteID) (*domaincampsites.Campsite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, domaincampsites.ErrCampsiteNotFound
	}
	return cloneCampsite(c), nil
}

func (r *CampsiteRepository) Save(ctx context.Context, c *domaincampsites.Campsite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneCampsite(c)
	stored.Version++
	c.Version = stored.Version
	r.items[c.ID] = stored
	return nil
}

func (r *CampsiteRepository) List(ctx context.Context, params domaincampsites.ListParams) (domaincampsites.ListResult, error) {
	r.mu.RLock()
	all := make([]*domaincampsites.Campsite, 0, len(r.items))
	for _, c := range r.items {
		all = append(all, cloneCampsite(c))
	}
	r.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return domaincampsites.ListResult{}, err
	}
	return domaincampsites.Apply(all, params), nil
}

// BookingRepository keeps bookings in memory. Stored values are copies.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneBooking(b)
	stored.Version++
	b.Version = stored.Version
	r.items[b.ID] = stored
	return nil
}

func (r *BookingRepository) ListByCampsite(ctx context.Context, campsiteID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.CampsiteID == campsiteID }), nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.GuestID == guestID }), nil
}

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out
}

// CalendarRepository returns an empty calendar for campsites that have none yet.
type CalendarRepository struct {
	mu    sync.RWMutex
	items map[string]*domainavailability.Calendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{items: make(map[string]*domainavailability.Calendar)}
}

func (r *CalendarRepository) Calendar(ctx context.Context, campsiteID string) (*domainavailability.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cal, ok := r.items[campsiteID]
	if !ok {
		return domainavailability.NewCalendar(campsiteID), nil
	}
	return cloneCalendar(cal), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneCalendar(cal)
	stored.Version++
	cal.Version = stored.Version
	r.items[cal.CampsiteID] = stored
	return nil
}

func sortBookings(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Range.CheckIn.Equal(items[j].Range.CheckIn) {
			return items[i].ID < items[j].ID
		}
		return items[i].Range.CheckIn.Before(items[j].Range.CheckIn)
	})
}

func cloneCampsite(c *domaincampsites.Campsite) *domaincampsites.Campsite {
	clone := *c
	clone.EventRecorder = events.EventRecorder{}
	clone.Amenities = append([]string(nil), c.Amenities...)
	clone.Discounts = append([]pricing.Discount(nil), c.Discounts...)
	clone.Pricing.SeasonalRates = append([]pricing.SeasonalRate(nil), c.Pricing.SeasonalRates...)
	return &clone
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	clone := *b
	clone.EventRecorder = events.EventRecorder{}
	clone.Price = b.Price.Copy()
	if b.Cancellation != nil {
		c := *b.Cancellation
		clone.Cancellation = &c
	}
	return &clone
}

func cloneCalendar(cal *domainavailability.Calendar) *domainavailability.Calendar {
	clone := *cal
	clone.EventRecorder = events.EventRecorder{}
	clone.Blocks = append([]domainavailability.BlockedRange(nil), cal.Blocks...)
	return &clone
}
