package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
)

const (
	collectionCampsites   = "agg_campsite"
	collectionBookings    = "agg_booking"
	collectionCalendars   = "agg_calendar"
	collectionIdempotency = "app_idempotency"
	collectionOutbox      = "app_outbox"
	collectionInbox       = "app_inbox"
)

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		collectionBookings: {
			{Keys: bson.D{{Key: "campsite_id", Value: 1}, {Key: "range.check_in", Value: 1}}},
			{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collectionCampsites: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "category", Value: 1}}},
		},
		collectionOutbox: {
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		},
		collectionInbox: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "consumer", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
}

// saveVersioned upserts doc only while the stored version still equals version.
// A lost race surfaces as uow.ErrConcurrentUpdate.
func saveVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, doc any) error {
	filter := bson.M{"_id": id, "version": version}
	res, err := col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return translateWriteErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	return nil
}

func translateWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return uow.ErrConcurrentUpdate
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError") {
		return errors.Join(uow.ErrConcurrentUpdate, err)
	}
	return err
}

type CampsiteRepository struct {
	col *mongo.Collection
}

func NewCampsiteRepository(db *mongo.Database) *CampsiteRepository {
	return &CampsiteRepository{col: db.Collection(collectionCampsites)}
}

func (r *CampsiteRepository) ByID(ctx context.Context, id domaincampsites.CampsiteID) (*domaincampsites.Campsite, error) {
	var doc campsiteDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincampsites.ErrCampsiteNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CampsiteRepository) Save(ctx context.Context, c *domaincampsites.Campsite) error {
	doc := newCampsiteDocument(c)
	doc.Version = c.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, c.Version, doc); err != nil {
		return err
	}
	c.Version = doc.Version
	return nil
}

// List pushes the exact-match filters down and lets the domain rank and page the rest.
func (r *CampsiteRepository) List(ctx context.Context, params domaincampsites.ListParams) (domaincampsites.ListResult, error) {
	p := params.Normalized()
	filter := bson.M{}
	if p.OnlyActive {
		filter["state"] = string(domaincampsites.StateActive)
	}
	if p.Category != "" {
		filter["category"] = string(p.Category)
	}
	if p.PetsOnly {
		filter["pets_allowed"] = true
	}
	if p.MinGuests > 0 {
		filter["max_guests"] = bson.M{"$gte": p.MinGuests}
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return domaincampsites.ListResult{}, err
	}
	var docs []campsiteDocument
	if err := cur.All(ctx, &docs); err != nil {
		return domaincampsites.ListResult{}, err
	}
	all := make([]*domaincampsites.Campsite, 0, len(docs))
	for _, d := range docs {
		all = append(all, d.toAggregate())
	}
	return domaincampsites.Apply(all, p), nil
}

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(collectionBookings)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, b.Version, doc); err != nil {
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByCampsite(ctx context.Context, campsiteID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"campsite_id": campsiteID})
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest_id": guestID})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

// CalendarRepository stores one versioned document per campsite. Saving it inside a
// transaction makes concurrent writers to the same campsite conflict.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection(collectionCalendars)}
}

func (r *CalendarRepository) Calendar(ctx context.Context, campsiteID string) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": campsiteID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainavailability.NewCalendar(campsiteID), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	doc := newCalendarDocument(cal)
	doc.Version = cal.Version + 1
	if err := saveVersioned(ctx, r.col, doc.CampsiteID, cal.Version, doc); err != nil {
		return err
	}
	cal.Version = doc.Version
	return nil
}

var (
	_ domaincampsites.Repository    = (*CampsiteRepository)(nil)
	_ domainbooking.Repository      = (*BookingRepository)(nil)
	_ domainavailability.Repository = (*CalendarRepository)(nil)
)
