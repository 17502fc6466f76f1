package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
)

// checkSaved maps a versioned upsert that touched no row to a lost race.
func checkSaved(affected int64, err error) error {
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		return uow.ErrConcurrentUpdate
	}
	return nil
}

type CampsiteRepository struct {
	db querier
}

func NewCampsiteRepository(db querier) *CampsiteRepository {
	return &CampsiteRepository{db: db}
}

const campsiteColumns = `id, data, version, created_at, updated_at`

func scanCampsite(row pgx.Row) (*domaincampsites.Campsite, error) {
	var (
		id               string
		data             campsiteData
		version          int64
		created, updated time.Time
	)
	if err := row.Scan(&id, &data, &version, &created, &updated); err != nil {
		return nil, err
	}
	return data.toAggregate(id, version, created, updated), nil
}

func (r *CampsiteRepository) ByID(ctx context.Context, id domaincampsites.CampsiteID) (*domaincampsites.Campsite, error) {
	row := r.db.QueryRow(ctx, `SELECT `+campsiteColumns+` FROM campsites WHERE id = @id`, pgx.NamedArgs{"id": string(id)})
	c, err := scanCampsite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domaincampsites.ErrCampsiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: campsite %s: %w", id, err)
	}
	return c, nil
}

func (r *CampsiteRepository) Save(ctx context.Context, c *domaincampsites.Campsite) error {
	const q = `
		INSERT INTO campsites (id, slug, state, category, max_guests, pets_allowed, data, version, created_at, updated_at)
		VALUES (@id, @slug, @state, @category, @max_guests, @pets_allowed, @data, @next, @created_at, @updated_at)
		ON CONFLICT (id) DO UPDATE SET
			slug         = EXCLUDED.slug,
			state        = EXCLUDED.state,
			category     = EXCLUDED.category,
			max_guests   = EXCLUDED.max_guests,
			pets_allowed = EXCLUDED.pets_allowed,
			data         = EXCLUDED.data,
			version      = EXCLUDED.version,
			updated_at   = EXCLUDED.updated_at
		WHERE campsites.version = @prev`

	next := c.Version + 1
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":           string(c.ID),
		"slug":         c.Slug,
		"state":        string(c.State),
		"category":     string(c.Category),
		"max_guests":   c.MaxGuests,
		"pets_allowed": c.PetsAllowed,
		"data":         newCampsiteData(c),
		"next":         next,
		"prev":         c.Version,
		"created_at":   c.CreatedAt,
		"updated_at":   c.UpdatedAt,
	})
	if err := checkSaved(tag.RowsAffected(), err); err != nil {
		return err
	}
	c.Version = next
	return nil
}

// List pushes the exact-match filters into SQL and lets the domain rank and page the rest.
func (r *CampsiteRepository) List(ctx context.Context, params domaincampsites.ListParams) (domaincampsites.ListResult, error) {
	p := params.Normalized()
	var where []string
	args := pgx.NamedArgs{}
	if p.OnlyActive {
		where = append(where, "state = @state")
		args["state"] = string(domaincampsites.StateActive)
	}
	if p.Category != "" {
		where = append(where, "category = @category")
		args["category"] = string(p.Category)
	}
	if p.PetsOnly {
		where = append(where, "pets_allowed")
	}
	if p.MinGuests > 0 {
		where = append(where, "max_guests >= @min_guests")
		args["min_guests"] = p.MinGuests
	}
	q := `SELECT ` + campsiteColumns + ` FROM campsites`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return domaincampsites.ListResult{}, fmt.Errorf("postgres: list campsites: %w", err)
	}
	defer rows.Close()

	var all []*domaincampsites.Campsite
	for rows.Next() {
		c, err := scanCampsite(rows)
		if err != nil {
			return domaincampsites.ListResult{}, fmt.Errorf("postgres: list campsites: scan: %w", err)
		}
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return domaincampsites.ListResult{}, fmt.Errorf("postgres: list campsites: %w", err)
	}
	return domaincampsites.Apply(all, p), nil
}

type BookingRepository struct {
	db querier
}

func NewBookingRepository(db querier) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, data, version, created_at, updated_at`

func scanBooking(row pgx.Row) (*domainbooking.Booking, error) {
	var (
		id               string
		data             bookingData
		version          int64
		created, updated time.Time
	)
	if err := row.Scan(&id, &data, &version, &created, &updated); err != nil {
		return nil, err
	}
	return data.toAggregate(id, version, created, updated), nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = @id`, pgx.NamedArgs{"id": string(id)})
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainbooking.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: booking %s: %w", id, err)
	}
	return b, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	const q = `
		INSERT INTO bookings (id, campsite_id, guest_id, check_in, check_out, status, data, version, created_at, updated_at)
		VALUES (@id, @campsite_id, @guest_id, @check_in, @check_out, @status, @data, @next, @created_at, @updated_at)
		ON CONFLICT (id) DO UPDATE SET
			status     = EXCLUDED.status,
			data       = EXCLUDED.data,
			version    = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE bookings.version = @prev`

	next := b.Version + 1
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":          string(b.ID),
		"campsite_id": b.CampsiteID,
		"guest_id":    b.GuestID,
		"check_in":    b.Range.CheckIn,
		"check_out":   b.Range.CheckOut,
		"status":      string(b.Status),
		"data":        newBookingData(b),
		"next":        next,
		"prev":        b.Version,
		"created_at":  b.CreatedAt,
		"updated_at":  b.UpdatedAt,
	})
	if err := checkSaved(tag.RowsAffected(), err); err != nil {
		return err
	}
	b.Version = next
	return nil
}

func (r *BookingRepository) ListByCampsite(ctx context.Context, campsiteID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, `campsite_id = @key`, campsiteID)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, `guest_id = @key`, guestID)
}

func (r *BookingRepository) find(ctx context.Context, cond, key string) ([]*domainbooking.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + cond + ` ORDER BY check_in, id`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"key": key})
	if err != nil {
		return nil, fmt.Errorf("postgres: list bookings: %w", err)
	}
	defer rows.Close()

	out := []*domainbooking.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: list bookings: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list bookings: %w", err)
	}
	return out, nil
}

// CalendarRepository keeps one versioned row per campsite. Writers that book or block
// the same campsite update this row, so concurrent units serialize on it.
type CalendarRepository struct {
	db querier
}

func NewCalendarRepository(db querier) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) Calendar(ctx context.Context, campsiteID string) (*domainavailability.Calendar, error) {
	var (
		blocks  []domainavailability.BlockedRange
		version int64
	)
	err := r.db.QueryRow(ctx, `SELECT blocks, version FROM calendars WHERE campsite_id = @id`, pgx.NamedArgs{"id": campsiteID}).
		Scan(&blocks, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domainavailability.NewCalendar(campsiteID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: calendar %s: %w", campsiteID, err)
	}
	cal := &domainavailability.Calendar{CampsiteID: campsiteID, Version: version}
	for _, b := range blocks {
		b.CampsiteID = campsiteID
		b.Range.CheckIn, b.Range.CheckOut = b.Range.CheckIn.UTC(), b.Range.CheckOut.UTC()
		b.CreatedAt = b.CreatedAt.UTC()
		cal.Blocks = append(cal.Blocks, b)
	}
	return cal, nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	const q = `
		INSERT INTO calendars (campsite_id, blocks, version)
		VALUES (@id, @blocks, @next)
		ON CONFLICT (campsite_id) DO UPDATE SET
			blocks  = EXCLUDED.blocks,
			version = EXCLUDED.version
		WHERE calendars.version = @prev`

	blocks := cal.Blocks
	if blocks == nil {
		blocks = []domainavailability.BlockedRange{}
	}
	next := cal.Version + 1
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": cal.CampsiteID, "blocks": blocks, "next": next, "prev": cal.Version})
	if err := checkSaved(tag.RowsAffected(), err); err != nil {
		return err
	}
	cal.Version = next
	return nil
}

var (
	_ domaincampsites.Repository    = (*CampsiteRepository)(nil)
	_ domainbooking.Repository      = (*BookingRepository)(nil)
	_ domainavailability.Repository = (*CalendarRepository)(nil)
)
