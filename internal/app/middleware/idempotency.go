package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"campbook/internal/app/commands"
)

// IdempotentCommand is implemented by commands replayable by key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer of the handler's result type to decode replays into.
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	Command    string
	Payload    []byte
	Error      string
	OccurredAt time.Time
	// Pending marks a key claimed by a command that has not finished yet.
	Pending bool
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	// Reserve stores rec only if no live record exists for its key and reports whether it did.
	Reserve(ctx context.Context, rec IdempotencyRecord) (bool, error)
	// Release removes a pending reservation so the key can be retried.
	Release(ctx context.Context, key string) error
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
	// ErrIdempotencyKeyReused means a key was first used for a different command.
	ErrIdempotencyKeyReused = errors.New("middleware: idempotency key reused for another command")
	// ErrIdempotencyInProgress means another request with the same key is still running.
	ErrIdempotencyInProgress = errors.New("middleware: idempotency key in use by a running command")
)

// ReplayedError carries the message of a failure recorded under an idempotency key.
type ReplayedError struct {
	Message string
}

func (e *ReplayedError) Error() string { return e.Message }

// Idempotency stores the result of idempotent commands and replays it for repeated keys.
// A key is reserved before the command runs, so concurrent duplicates are turned away
// instead of running twice. Failed commands release the key and a retry runs again.
func Idempotency(store IdempotencyStore, codec ResultCodec, now func() time.Time) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	if now == nil {
		now = time.Now
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(rec, idCmd, codec)
			}
			reserved, err := store.Reserve(ctx, IdempotencyRecord{Key: key, Command: cmd.Key(), OccurredAt: now().UTC(), Pending: true})
			if err != nil {
				return nil, err
			}
			if !reserved {
				rec, found, err := store.Get(ctx, key)
				if err != nil {
					return nil, err
				}
				if !found {
					return nil, ErrIdempotencyInProgress
				}
				return replay(rec, idCmd, codec)
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if relErr := store.Release(ctx, key); relErr != nil {
					return nil, errors.Join(err, relErr)
				}
				return nil, err
			}
			record := IdempotencyRecord{Key: key, Command: cmd.Key(), OccurredAt: now().UTC()}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Command != "" && rec.Command != cmd.Key() {
		return nil, ErrIdempotencyKeyReused
	}
	if rec.Pending {
		return nil, ErrIdempotencyInProgress
	}
	if rec.Error != "" {
		return nil, &ReplayedError{Message: rec.Error}
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return normalizePrototype(proto), nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
