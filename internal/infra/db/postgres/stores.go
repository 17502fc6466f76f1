package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campbook/internal/app/middleware"
	appoutbox "campbook/internal/app/outbox"
	"campbook/internal/infra/outbox"
)

// IdempotencyStore keeps command results in idempotency_keys. Rows older than TTL are
// ignored on read and removed by Purge.
type IdempotencyStore struct {
	db  querier
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{db: pool, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	const q = `
		SELECT key, command, payload, error, occurred_at, pending
		FROM idempotency_keys
		WHERE key = @key AND created_at > @cutoff`

	var rec middleware.IdempotencyRecord
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key, "cutoff": s.cutoff()}).
		Scan(&rec.Key, &rec.Command, &rec.Payload, &rec.Error, &rec.OccurredAt, &rec.Pending)
	if errors.Is(err, pgx.ErrNoRows) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("postgres: idempotency get: %w", err)
	}
	rec.OccurredAt = rec.OccurredAt.UTC()
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	const q = `
		INSERT INTO idempotency_keys (key, command, payload, error, occurred_at, created_at, pending)
		VALUES (@key, @command, @payload, @error, @occurred_at, @created_at, FALSE)
		ON CONFLICT (key) DO UPDATE SET
			command     = EXCLUDED.command,
			payload     = EXCLUDED.payload,
			error       = EXCLUDED.error,
			occurred_at = EXCLUDED.occurred_at,
			created_at  = EXCLUDED.created_at,
			pending     = FALSE`

	_, err := s.db.Exec(ctx, q, pgx.NamedArgs{
		"key":         rec.Key,
		"command":     rec.Command,
		"payload":     rec.Payload,
		"error":       rec.Error,
		"occurred_at": rec.OccurredAt,
		"created_at":  s.now(),
	})
	if err != nil {
		return fmt.Errorf("postgres: idempotency save: %w", err)
	}
	return nil
}

// Reserve claims key for a running command. An expired row is taken over; a live one wins.
func (s *IdempotencyStore) Reserve(ctx context.Context, rec middleware.IdempotencyRecord) (bool, error) {
	const q = `
		INSERT INTO idempotency_keys (key, command, payload, error, occurred_at, created_at, pending)
		VALUES (@key, @command, NULL, '', @occurred_at, @created_at, TRUE)
		ON CONFLICT (key) DO UPDATE SET
			command     = EXCLUDED.command,
			payload     = NULL,
			error       = '',
			occurred_at = EXCLUDED.occurred_at,
			created_at  = EXCLUDED.created_at,
			pending     = TRUE
		WHERE idempotency_keys.created_at <= @cutoff`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{
		"key":         rec.Key,
		"command":     rec.Command,
		"occurred_at": rec.OccurredAt,
		"created_at":  s.now(),
		"cutoff":      s.cutoff(),
	})
	if err != nil {
		return false, fmt.Errorf("postgres: idempotency reserve: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = @key AND pending`, pgx.NamedArgs{"key": key})
	if err != nil {
		return fmt.Errorf("postgres: idempotency release: %w", err)
	}
	return nil
}

// Purge deletes expired keys and reports how many were removed.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at <= @cutoff`, pgx.NamedArgs{"cutoff": s.cutoff()})
	if err != nil {
		return 0, fmt.Errorf("postgres: idempotency purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *IdempotencyStore) cutoff() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(-s.ttl)
}

// OutboxStore writes outbox rows in the caller's transaction and serves them to an
// outbox.Worker. Claims use SKIP LOCKED so several workers can drain concurrently.
type OutboxStore struct {
	pool querier
	now  func() time.Time
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	const q = `
		INSERT INTO outbox_events (id, name, aggregate, payload, headers, occurred_at, state, next_attempt_at)
		VALUES (@id, @name, @aggregate, @payload, @headers, @occurred_at, @state, @next_attempt_at)`

	headers := record.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	_, err := conn(ctx, s.pool).Exec(ctx, q, pgx.NamedArgs{
		"id":              record.ID,
		"name":            record.Name,
		"aggregate":       record.Aggregate,
		"payload":         record.Payload,
		"headers":         headers,
		"occurred_at":     record.OccurredAt,
		"state":           outbox.StateNew,
		"next_attempt_at": s.now(),
	})
	if err != nil {
		return fmt.Errorf("postgres: outbox add %s: %w", record.Name, translateErr(err))
	}
	return nil
}

// Flush is a no-op: rows become visible on commit.
func (s *OutboxStore) Flush(context.Context) error {
	return nil
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string, lease time.Duration) (*outbox.EventDocument, error) {
	const q = `
		UPDATE outbox_events
		SET state = @claimed, claimed_by = @worker, claimed_at = @now
		WHERE id = (
			SELECT id FROM outbox_events
			WHERE (state IN (@new, @failed) AND next_attempt_at <= @now)
			   OR (state = @claimed AND claimed_at <= @stale)
			ORDER BY next_attempt_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, name, aggregate, payload, headers, occurred_at, state, attempts, next_attempt_at, claimed_by, claimed_at, last_error`

	now := s.now()
	var (
		doc       outbox.EventDocument
		claimedAt *time.Time
	)
	err := s.pool.QueryRow(ctx, q, pgx.NamedArgs{
		"claimed": outbox.StateClaimed,
		"new":     outbox.StateNew,
		"failed":  outbox.StateFailed,
		"worker":  workerID,
		"now":     now,
		"stale":   now.Add(-lease),
	}).Scan(&doc.ID, &doc.Name, &doc.Aggregate, &doc.Payload, &doc.Headers, &doc.OccurredAt,
		&doc.State, &doc.Attempts, &doc.NextAttempt, &doc.ClaimedBy, &claimedAt, &doc.LastError)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: outbox claim: %w", err)
	}
	if claimedAt != nil {
		doc.ClaimedAt = claimedAt.UTC()
	}
	doc.OccurredAt = doc.OccurredAt.UTC()
	return &doc, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox_events SET state = @state, sent_at = @now WHERE id = @id`,
		pgx.NamedArgs{"state": outbox.StateSent, "now": s.now(), "id": id})
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return s.fail(ctx, id, outbox.StateFailed, next, errMsg)
}

func (s *OutboxStore) MarkDead(ctx context.Context, id string, errMsg string) error {
	return s.fail(ctx, id, outbox.StateDead, s.now(), errMsg)
}

func (s *OutboxStore) fail(ctx context.Context, id, state string, next time.Time, errMsg string) error {
	const q = `
		UPDATE outbox_events
		SET state = @state, next_attempt_at = @next, last_error = @error, attempts = attempts + 1
		WHERE id = @id`
	_, err := s.pool.Exec(ctx, q, pgx.NamedArgs{"state": state, "next": next, "error": errMsg, "id": id})
	return err
}

// InboxStore remembers handled event IDs per consumer.
type InboxStore struct {
	db       querier
	consumer string
}

func NewInboxStore(pool *pgxpool.Pool, consumer string) *InboxStore {
	return &InboxStore{db: pool, consumer: consumer}
}

func (s *InboxStore) Seen(ctx context.Context, eventID string) (bool, error) {
	var seen bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inbox_events WHERE consumer = @consumer AND event_id = @id)`,
		pgx.NamedArgs{"consumer": s.consumer, "id": eventID}).Scan(&seen)
	return seen, err
}

func (s *InboxStore) Mark(ctx context.Context, eventID string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO inbox_events (consumer, event_id) VALUES (@consumer, @id) ON CONFLICT DO NOTHING`,
		pgx.NamedArgs{"consumer": s.consumer, "id": eventID})
	return err
}

var (
	_ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
	_ appoutbox.Outbox            = (*OutboxStore)(nil)
	_ outbox.Queue                = (*OutboxStore)(nil)
)
