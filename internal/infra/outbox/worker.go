package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Queue is the part of Store the worker drives.
type Queue interface {
	Claim(ctx context.Context, workerID string, lease time.Duration) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
	MarkDead(ctx context.Context, id string, errMsg string) error
}

// Worker relays committed outbox rows to Kafka as CloudEvents.
type Worker struct {
	Store       Queue
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	Lease       time.Duration
	BatchSize   int
	MaxAttempts int
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Now         func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.log().WarnContext(ctx, "outbox drain failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// Drain publishes due rows until none are left or the batch size is reached.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	batch := w.BatchSize
	if batch <= 0 {
		batch = 100
	}
	published := 0
	for i := 0; i < batch; i++ {
		doc, err := w.Store.Claim(ctx, w.ID, w.lease())
		if err != nil {
			return published, err
		}
		if doc == nil {
			return published, nil
		}
		if err := w.process(ctx, doc); err != nil {
			return published, err
		}
		if doc.State == StateSent {
			published++
		}
	}
	return published, nil
}

func (w *Worker) process(ctx context.Context, doc *EventDocument) error {
	payload, headers, err := w.formatPayload(doc)
	if err == nil {
		err = w.Producer.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, payload, headers)
	}
	if err == nil {
		doc.State = StateSent
		return w.Store.MarkSent(ctx, doc.ID)
	}
	if w.MaxAttempts > 0 && doc.Attempts+1 >= w.MaxAttempts {
		w.log().ErrorContext(ctx, "outbox event dead-lettered", "event", doc.Name, "event_id", doc.ID, "attempts", doc.Attempts+1, "error", err)
		doc.State = StateDead
		return w.Store.MarkDead(ctx, doc.ID, err.Error())
	}
	w.log().WarnContext(ctx, "outbox publish failed", "event", doc.Name, "event_id", doc.ID, "attempt", doc.Attempts+1, "error", err)
	doc.State = StateFailed
	return w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
}

func (w *Worker) formatPayload(doc *EventDocument) ([]byte, map[string]string, error) {
	var data json.RawMessage = doc.Payload
	if !json.Valid(data) {
		return nil, nil, errors.New("outbox: payload is not valid JSON")
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          w.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := doc.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce-id":        doc.ID,
		"ce-type":      doc.Name,
	}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// TopicFor maps "booking.canceled" to "<prefix>booking.events.v1".
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}

func (w *Worker) topicFor(name string) string {
	return TopicFor(w.TopicPrefix, name)
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) lease() time.Duration {
	if w.Lease <= 0 {
		return time.Minute
	}
	return w.Lease
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now().UTC()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return w.now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return w.now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://campbook"
}

func (w *Worker) log() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
