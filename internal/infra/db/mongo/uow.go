package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo sessions into uow.UnitOfWork. Writing units run in a
// snapshot transaction; read-only units use a plain causally consistent session.
type Factory struct {
	DB *mongo.Database

	Campsites *CampsiteRepository
	Bookings  *BookingRepository
	Calendars *CalendarRepository
}

func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:        db,
		Campsites: NewCampsiteRepository(db),
		Bookings:  NewBookingRepository(db),
		Calendars: NewCalendarRepository(db),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession(options.Session().SetCausalConsistency(true))
	if err != nil {
		return nil, err
	}
	unit := &Unit{session: session, campsites: f.Campsites, bookings: f.Bookings, calendars: f.Calendars, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool

	campsites *CampsiteRepository
	bookings  *BookingRepository
	calendars *CalendarRepository
}

func (u *Unit) Campsites() domaincampsites.Repository    { return u.campsites }
func (u *Unit) Bookings() domainbooking.Repository       { return u.bookings }
func (u *Unit) Calendars() domainavailability.Repository { return u.calendars }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		return translateWriteErr(err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext binds the session to ctx so repository calls join it.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.Factory = Factory{}
