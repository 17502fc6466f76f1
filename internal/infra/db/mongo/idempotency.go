package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campbook/internal/app/middleware"
)

// IdempotencyStore keeps command results; a TTL index on created_at expires them.
type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	col := db.Collection(collectionIdempotency)
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col, ttl: ttl}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	filter := bson.M{"_id": key, "created_at": bson.M{"$gt": s.cutoff()}}
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	return doc.toRecord(), true, nil
}

// Reserve upserts a pending record unless a live one exists. A live record fails the
// filter, so the upsert collides on _id and the reservation is refused.
func (s *IdempotencyStore) Reserve(ctx context.Context, rec middleware.IdempotencyRecord) (bool, error) {
	now := time.Now().UTC()
	doc := newIdempotencyDocument(rec, now)
	doc.Pending = true
	filter := bson.M{"_id": rec.Key, "created_at": bson.M{"$lte": s.cutoff()}}
	_, err := s.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": key, "pending": true})
	return err
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := newIdempotencyDocument(rec, time.Now().UTC())
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, options.Replace().SetUpsert(true))
	return err
}

// cutoff is the creation time at or before which a record counts as expired.
func (s *IdempotencyStore) cutoff() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().Add(-s.ttl)
}

type idempotencyDocument struct {
	Key        string    `bson:"_id"`
	Command    string    `bson:"command"`
	Payload    []byte    `bson:"payload,omitempty"`
	Error      string    `bson:"error,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
	CreatedAt  time.Time `bson:"created_at"`
	Pending    bool      `bson:"pending,omitempty"`
}

func newIdempotencyDocument(rec middleware.IdempotencyRecord, createdAt time.Time) idempotencyDocument {
	return idempotencyDocument{
		Key:        rec.Key,
		Command:    rec.Command,
		Payload:    rec.Payload,
		Error:      rec.Error,
		OccurredAt: rec.OccurredAt,
		CreatedAt:  createdAt,
		Pending:    rec.Pending,
	}
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{Key: d.Key, Command: d.Command, Payload: d.Payload, Error: d.Error, OccurredAt: d.OccurredAt, Pending: d.Pending}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
