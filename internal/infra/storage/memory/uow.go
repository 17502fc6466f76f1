package memory

import (
	"context"
	"errors"
	"sync"

	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
)

var ErrUnitClosed = errors.New("memory: unit of work already closed")

// Store owns the in-memory repositories and hands out units of work over them.
// Writing units are serialized and buffer their saves until Commit.
type Store struct {
	Campsites *CampsiteRepository
	Bookings  *BookingRepository
	Calendars *CalendarRepository

	writer sync.Mutex
}

func NewStore() *Store {
	return &Store{
		Campsites: NewCampsiteRepository(),
		Bookings:  NewBookingRepository(),
		Calendars: NewCalendarRepository(),
	}
}

func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ReadOnly {
		return &readUnit{store: s}, nil
	}
	s.writer.Lock()
	return &writeUnit{
		store:     s,
		campsites: &stagedCampsites{base: s.Campsites, pending: map[domaincampsites.CampsiteID]*domaincampsites.Campsite{}},
		bookings:  &stagedBookings{base: s.Bookings, pending: map[domainbooking.BookingID]*domainbooking.Booking{}},
		calendars: &stagedCalendars{base: s.Calendars, pending: map[string]*domainavailability.Calendar{}},
	}, nil
}

type readUnit struct {
	store *Store
}

func (u *readUnit) Campsites() domaincampsites.Repository    { return u.store.Campsites }
func (u *readUnit) Bookings() domainbooking.Repository       { return u.store.Bookings }
func (u *readUnit) Calendars() domainavailability.Repository { return u.store.Calendars }
func (u *readUnit) Commit(context.Context) error             { return nil }
func (u *readUnit) Rollback(context.Context) error           { return nil }

type writeUnit struct {
	store     *Store
	campsites *stagedCampsites
	bookings  *stagedBookings
	calendars *stagedCalendars
	onCommit  []func()
	closed    bool
}

func (u *writeUnit) Campsites() domaincampsites.Repository    { return u.campsites }
func (u *writeUnit) Bookings() domainbooking.Repository       { return u.bookings }
func (u *writeUnit) Calendars() domainavailability.Repository { return u.calendars }

func (u *writeUnit) Commit(ctx context.Context) error {
	if u.closed {
		return ErrUnitClosed
	}
	defer u.close()
	for _, c := range u.campsites.pending {
		if err := u.store.Campsites.Save(ctx, c); err != nil {
			return err
		}
	}
	for _, b := range u.bookings.pending {
		if err := u.store.Bookings.Save(ctx, b); err != nil {
			return err
		}
	}
	for _, cal := range u.calendars.pending {
		if err := u.store.Calendars.Save(ctx, cal); err != nil {
			return err
		}
	}
	for _, fn := range u.onCommit {
		fn()
	}
	return nil
}

// AfterCommit registers fn to run once the unit commits. Rollback discards it.
func (u *writeUnit) AfterCommit(fn func()) {
	u.onCommit = append(u.onCommit, fn)
}

func (u *writeUnit) Rollback(context.Context) error {
	if u.closed {
		return nil
	}
	u.close()
	return nil
}

func (u *writeUnit) close() {
	u.closed = true
	u.onCommit = nil
	u.store.writer.Unlock()
}

type stagedCampsites struct {
	base    *CampsiteRepository
	pending map[domaincampsites.CampsiteID]*domaincampsites.Campsite
}

func (s *stagedCampsites) ByID(ctx context.Context, id domaincampsites.CampsiteID) (*domaincampsites.Campsite, error) {
	if c, ok := s.pending[id]; ok {
		return cloneCampsite(c), nil
	}
	return s.base.ByID(ctx, id)
}

func (s *stagedCampsites) Save(ctx context.Context, c *domaincampsites.Campsite) error {
	s.pending[c.ID] = cloneCampsite(c)
	return nil
}

func (s *stagedCampsites) List(ctx context.Context, params domaincampsites.ListParams) (domaincampsites.ListResult, error) {
	return s.base.List(ctx, params)
}

type stagedBookings struct {
	base    *BookingRepository
	pending map[domainbooking.BookingID]*domainbooking.Booking
}

func (s *stagedBookings) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if b, ok := s.pending[id]; ok {
		return cloneBooking(b), nil
	}
	return s.base.ByID(ctx, id)
}

func (s *stagedBookings) Save(ctx context.Context, b *domainbooking.Booking) error {
	s.pending[b.ID] = cloneBooking(b)
	return nil
}

func (s *stagedBookings) ListByCampsite(ctx context.Context, campsiteID string) ([]*domainbooking.Booking, error) {
	stored, err := s.base.ListByCampsite(ctx, campsiteID)
	if err != nil {
		return nil, err
	}
	return s.merge(stored, func(b *domainbooking.Booking) bool { return b.CampsiteID == campsiteID }), nil
}

func (s *stagedBookings) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	stored, err := s.base.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return s.merge(stored, func(b *domainbooking.Booking) bool { return b.GuestID == guestID }), nil
}

func (s *stagedBookings) merge(stored []*domainbooking.Booking, keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0, len(stored)+len(s.pending))
	for _, b := range stored {
		if _, staged := s.pending[b.ID]; !staged {
			out = append(out, b)
		}
	}
	for _, b := range s.pending {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out
}

type stagedCalendars struct {
	base    *CalendarRepository
	pending map[string]*domainavailability.Calendar
}

func (s *stagedCalendars) Calendar(ctx context.Context, campsiteID string) (*domainavailability.Calendar, error) {
	if cal, ok := s.pending[campsiteID]; ok {
		return cloneCalendar(cal), nil
	}
	return s.base.Calendar(ctx, campsiteID)
}

func (s *stagedCalendars) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	s.pending[cal.CampsiteID] = cloneCalendar(cal)
	return nil
}

var (
	_ uow.Factory                   = (*Store)(nil)
	_ domaincampsites.Repository    = (*CampsiteRepository)(nil)
	_ domainbooking.Repository      = (*BookingRepository)(nil)
	_ domainavailability.Repository = (*CalendarRepository)(nil)
)
