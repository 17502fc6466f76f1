package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing pool")

// Factory opens units of work on a pool. Writing units run in a REPEATABLE READ
// transaction; read-only units query the pool directly.
type Factory struct {
	Pool *pgxpool.Pool
}

func NewFactory(pool *pgxpool.Pool) Factory {
	return Factory{Pool: pool}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Pool == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	if opts.ReadOnly {
		return newUnit(f.Pool, nil), nil
	}
	tx, err := f.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	return newUnit(tx, tx), nil
}

type Unit struct {
	tx pgx.Tx

	campsites *CampsiteRepository
	bookings  *BookingRepository
	calendars *CalendarRepository
}

func newUnit(db querier, tx pgx.Tx) *Unit {
	return &Unit{
		tx:        tx,
		campsites: NewCampsiteRepository(db),
		bookings:  NewBookingRepository(db),
		calendars: NewCalendarRepository(db),
	}
}

func (u *Unit) Campsites() domaincampsites.Repository    { return u.campsites }
func (u *Unit) Bookings() domainbooking.Repository       { return u.bookings }
func (u *Unit) Calendars() domainavailability.Repository { return u.calendars }

func (u *Unit) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Commit(ctx); err != nil {
		return translateErr(err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// InjectContext binds the transaction to ctx so the outbox store writes inside it.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	if u.tx == nil {
		return ctx
	}
	return withTx(ctx, u.tx)
}

var _ uow.Factory = Factory{}
