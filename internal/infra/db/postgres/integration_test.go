package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/app/middleware"
	appoutbox "campbook/internal/app/outbox"
	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
	"campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
	"campbook/internal/infra/db/postgres"
	"campbook/internal/infra/db/postgres/migrations"
	"campbook/internal/infra/outbox"
)

// Integration tests run against TEST_DATABASE_URL and skip when it is unset.
func TestMain(m *testing.M) {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		ctx := context.Background()
		pool, err := postgres.Open(ctx, dsn)
		if err != nil {
			panic(err)
		}
		if _, err := postgres.Migrate(ctx, pool); err != nil {
			panic(err)
		}
		pool.Close()
	}
	os.Exit(m.Run())
}

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	pool, err := postgres.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func day(offset int) time.Time {
	return time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func newCampsite(t *testing.T, category domaincampsites.Category, maxGuests int) *domaincampsites.Campsite {
	t.Helper()
	id := "cs-" + uuid.NewString()
	c, err := domaincampsites.NewCampsite(domaincampsites.CreateParams{
		ID:        domaincampsites.CampsiteID(id),
		OwnerID:   "host-1",
		Name:      "Site " + id,
		Category:  category,
		MaxGuests: maxGuests,
		Pricing:   pricing.Rules{PricePerNight: money.Must(4500, "USD"), CleaningFee: money.Zero("USD")},
		Now:       day(-30),
	})
	require.NoError(t, err)
	require.NoError(t, c.Activate(day(-30)))
	return c
}

func newBooking(t *testing.T, campsiteID string, checkIn int) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(uuid.NewString()),
		CampsiteID: campsiteID,
		GuestID:    "guest-1",
		Range:      daterange.Must(day(checkIn), day(checkIn+2)),
		Guests:     domainbooking.Guests{Adults: 2},
		Price: pricing.PriceBreakdown{
			Currency:      "USD",
			Nights:        2,
			Subtotal:      money.Must(9000, "USD"),
			CleaningFee:   money.Zero("USD"),
			ServiceFee:    money.Must(900, "USD"),
			TaxAmount:     money.Zero("USD"),
			DiscountTotal: money.Zero("USD"),
		},
		Policy:    domainbooking.PolicyModerate,
		CreatedAt: day(-10),
	})
	require.NoError(t, err)
	return b
}

func TestMigrationsRoundTrip(t *testing.T) {
	pool := newPool(t)
	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { db.Close() })

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	require.NoError(t, err)
	ctx := context.Background()
	tables := []string{"campsites", "bookings", "calendars", "idempotency_keys", "outbox_events", "inbox_events"}

	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "goose down-to 0")
	for _, table := range tables {
		assert.False(t, tableExists(t, db, table), "table %q should be dropped", table)
	}

	results, err := provider.Up(ctx)
	require.NoError(t, err, "goose up")
	assert.NotEmpty(t, results)
	for _, table := range tables {
		assert.True(t, tableExists(t, db, table), "table %q should exist", table)
	}
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`
	var exists bool
	require.NoError(t, db.QueryRowContext(context.Background(), q, table).Scan(&exists))
	return exists
}

func TestFactory_CommitPersistsAggregates(t *testing.T) {
	ctx := context.Background()
	factory := postgres.NewFactory(newPool(t))
	site := newCampsite(t, domaincampsites.CategoryTent, 4)
	later := newBooking(t, string(site.ID), 5)
	earlier := newBooking(t, string(site.ID), 1)

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Campsites().Save(ctx, site))
	require.NoError(t, unit.Bookings().Save(ctx, later))
	require.NoError(t, unit.Bookings().Save(ctx, earlier))
	require.NoError(t, unit.Commit(ctx))

	reader, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer reader.Rollback(ctx)

	gotSite, err := reader.Campsites().ByID(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, site.Name, gotSite.Name)
	assert.Equal(t, domaincampsites.StateActive, gotSite.State)
	assert.Equal(t, int64(1), gotSite.Version)
	assert.Equal(t, int64(4500), gotSite.Pricing.PricePerNight.Amount)

	list, err := reader.Bookings().ListByCampsite(ctx, string(site.ID))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, earlier.ID, list[0].ID, "bookings are ordered by check-in")
	assert.True(t, list[0].Range.CheckIn.Equal(day(1)))
	assert.Equal(t, domainbooking.StatusPending, list[0].Status)
	assert.Equal(t, int64(9900), list[0].Price.Total.Amount)

	_, err = reader.Bookings().ByID(ctx, domainbooking.BookingID(uuid.NewString()))
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	_, err = reader.Campsites().ByID(ctx, "cs-missing")
	assert.ErrorIs(t, err, domaincampsites.ErrCampsiteNotFound)
}

func TestFactory_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	factory := postgres.NewFactory(newPool(t))
	b := newBooking(t, "cs-"+uuid.NewString(), 1)

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Save(ctx, b))
	require.NoError(t, unit.Rollback(ctx))
	require.NoError(t, unit.Rollback(ctx), "second rollback is a no-op")

	reader, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	_, err = reader.Bookings().ByID(ctx, b.ID)
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestBookingRepository_StaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewBookingRepository(newPool(t))
	b := newBooking(t, "cs-"+uuid.NewString(), 1)
	require.NoError(t, repo.Save(ctx, b))

	first, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	second, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, first.Confirm("hold-1", day(-5)))
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	_, err = second.Cancel(domainbooking.CancelledByGuest, "plans changed", day(-5))
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, second), uow.ErrConcurrentUpdate)

	got, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, got.Status)
	assert.Equal(t, "hold-1", got.PaymentHold)
}

func TestCalendarRepository_BlocksRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewCalendarRepository(newPool(t))
	campsiteID := "cs-" + uuid.NewString()

	cal, err := repo.Calendar(ctx, campsiteID)
	require.NoError(t, err)
	assert.Empty(t, cal.Blocks)
	assert.Zero(t, cal.Version)

	_, err = cal.Block("blk-1", daterange.Must(day(3), day(6)), domainavailability.BlockMaintenance, "pump repair", day(-1))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cal))

	got, err := repo.Calendar(ctx, campsiteID)
	require.NoError(t, err)
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, "blk-1", got.Blocks[0].ID)
	assert.Equal(t, campsiteID, got.Blocks[0].CampsiteID)
	assert.True(t, got.Blocks[0].Range.CheckIn.Equal(day(3)))
	assert.Equal(t, time.UTC, got.Blocks[0].Range.CheckIn.Location())
	assert.Equal(t, int64(1), got.Version)

	stale := domainavailability.NewCalendar(campsiteID)
	assert.ErrorIs(t, repo.Save(ctx, stale), uow.ErrConcurrentUpdate)
}

func TestCampsiteRepository_ListFiltersInSQL(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewCampsiteRepository(newPool(t))
	tent := newCampsite(t, domaincampsites.CategoryTent, 97)
	cabin := newCampsite(t, domaincampsites.CategoryCabin, 97)
	town := "town-" + uuid.NewString()
	tent.Location.City, cabin.Location.City = town, town
	require.NoError(t, repo.Save(ctx, tent))
	require.NoError(t, repo.Save(ctx, cabin))

	res, err := repo.List(ctx, domaincampsites.ListParams{City: town, Category: domaincampsites.CategoryTent, MinGuests: 97, OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, tent.ID, res.Items[0].ID)
	assert.Equal(t, 1, res.Total)
}

func TestIdempotencyStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewIdempotencyStore(newPool(t), time.Hour)
	now := time.Now().UTC()
	store.SetClock(func() time.Time { return now })

	key := "idem-" + uuid.NewString()
	rec := middleware.IdempotencyRecord{Key: key, Command: "booking.request", Payload: []byte(`{"id":"b1"}`), OccurredAt: now}
	require.NoError(t, store.Save(ctx, rec))

	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "booking.request", got.Command)
	assert.JSONEq(t, `{"id":"b1"}`, string(got.Payload))

	now = now.Add(2 * time.Hour)
	_, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired key is ignored")

	purged, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(1))
}

func TestIdempotencyStore_ReserveClaimsKeyOnce(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewIdempotencyStore(newPool(t), time.Hour)
	now := time.Now().UTC()
	store.SetClock(func() time.Time { return now })

	key := "idem-" + uuid.NewString()
	pending := middleware.IdempotencyRecord{Key: key, Command: "booking.request", OccurredAt: now, Pending: true}

	ok, err := store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.False(t, ok, "live reservation wins")

	got, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Pending)

	require.NoError(t, store.Release(ctx, key))
	_, found, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = store.Reserve(ctx, pending)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: key, Command: "booking.request", Payload: []byte(`{}`), OccurredAt: now}))
	require.NoError(t, store.Release(ctx, key))
	got, found, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found, "release leaves finished results alone")
	assert.False(t, got.Pending)

	now = now.Add(2 * time.Hour)
	ok, err = store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.True(t, ok, "an expired result is taken over")
}

func TestOutboxStore_ClaimAndAcknowledge(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	_, err := pool.Exec(ctx, `TRUNCATE outbox_events`)
	require.NoError(t, err)

	store := postgres.NewOutboxStore(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)
	store.SetClock(func() time.Time { return now })

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Add(ctx, appoutbox.EventRecord{
			ID:         fmt.Sprintf("evt-%d-%s", i, uuid.NewString()),
			Name:       domainbooking.EventRequested,
			Aggregate:  "booking",
			Payload:    []byte(`{}`),
			OccurredAt: now,
		}))
	}

	first, err := store.Claim(ctx, "worker-a", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, outbox.StateClaimed, first.State)
	assert.Equal(t, "worker-a", first.ClaimedBy)
	assert.Equal(t, map[string]string{}, first.Headers)

	second, err := store.Claim(ctx, "worker-b", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)

	none, err := store.Claim(ctx, "worker-c", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, none, "both rows are leased")

	require.NoError(t, store.MarkSent(ctx, first.ID))
	require.NoError(t, store.MarkFailed(ctx, second.ID, now.Add(time.Minute), "broker down"))

	none, err = store.Claim(ctx, "worker-c", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, none, "failed row waits for its retry time")

	now = now.Add(2 * time.Minute)
	retry, err := store.Claim(ctx, "worker-c", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, retry)
	assert.Equal(t, second.ID, retry.ID)
	assert.Equal(t, 1, retry.Attempts)
	assert.Equal(t, "broker down", retry.LastError)

	require.NoError(t, store.MarkDead(ctx, retry.ID, "gave up"))
	now = now.Add(time.Hour)
	none, err = store.Claim(ctx, "worker-c", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOutboxStore_AddJoinsUnitOfWork(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	factory := postgres.NewFactory(pool)
	store := postgres.NewOutboxStore(pool)
	id := "evt-" + uuid.NewString()

	unit, ctx, err := uow.Start(ctx, factory, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, appoutbox.EventRecord{ID: id, Name: domainbooking.EventCanceled, Aggregate: "booking", Payload: []byte(`{}`), OccurredAt: time.Now().UTC()}))
	require.NoError(t, unit.Rollback(ctx))

	var count int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT count(*) FROM outbox_events WHERE id = $1`, id).Scan(&count))
	assert.Zero(t, count, "rolled back with the unit")
}

func TestInboxStore_MarksOncePerConsumer(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	a := postgres.NewInboxStore(pool, "group-a")
	b := postgres.NewInboxStore(pool, "group-b")
	id := "evt-" + uuid.NewString()

	seen, err := a.Seen(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, a.Mark(ctx, id))
	require.NoError(t, a.Mark(ctx, id), "marking twice is harmless")

	seen, err = a.Seen(ctx, id)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = b.Seen(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)
}
