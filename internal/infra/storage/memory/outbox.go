package memory

import (
	"context"
	"log/slog"
	"sync"

	appoutbox "campbook/internal/app/outbox"
	"campbook/internal/app/uow"
)

// Sink receives flushed events in the order they were added.
type Sink func(ctx context.Context, record appoutbox.EventRecord) error

// committer is implemented by writing units of this package.
type committer interface {
	AfterCommit(fn func())
}

// Outbox hands records to Sink on Flush. Records added inside a unit of work become
// flushable only when that unit commits; a rolled back unit drops them. Sink failures
// are logged and do not fail the command.
type Outbox struct {
	mu     sync.Mutex
	ready  []appoutbox.EventRecord
	sent   []appoutbox.EventRecord
	Sink   Sink
	Logger *slog.Logger
}

func NewOutbox(sink Sink, logger *slog.Logger) *Outbox {
	return &Outbox{Sink: sink, Logger: logger}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if c, ok := unit.(committer); ok {
			c.AfterCommit(func() { o.release(record) })
			return nil
		}
	}
	o.release(record)
	return nil
}

func (o *Outbox) release(record appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = append(o.ready, record)
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.ready
	o.ready = nil
	o.sent = append(o.sent, batch...)
	o.mu.Unlock()

	if o.Sink == nil {
		return nil
	}
	for _, rec := range batch {
		if err := o.Sink(ctx, rec); err != nil && o.Logger != nil {
			o.Logger.WarnContext(ctx, "outbox sink failed", "event", rec.Name, "event_id", rec.ID, "error", err)
		}
	}
	return nil
}

// Sent lists every flushed record.
func (o *Outbox) Sent() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.sent...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
