package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	due    []*EventDocument
	sent   []string
	failed map[string]time.Time
	dead   []string
}

func (q *fakeQueue) Claim(context.Context, string, time.Duration) (*EventDocument, error) {
	if len(q.due) == 0 {
		return nil, nil
	}
	doc := q.due[0]
	q.due = q.due[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

func (q *fakeQueue) MarkDead(_ context.Context, id string, _ string) error {
	q.dead = append(q.dead, id)
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	out  []published
	fail error
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail != nil {
		return p.fail
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

var fixedNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func newDoc(id, name string, attempts int) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"BookingID":"bk-1"}`),
		OccurredAt: fixedNow,
		Aggregate:  "bk-1",
		Attempts:   attempts,
	}
}

func TestDrainPublishesCloudEvents(t *testing.T) {
	queue := &fakeQueue{due: []*EventDocument{newDoc("ev-1", "booking.canceled", 0), newDoc("ev-2", "calendar.blocked", 0)}}
	producer := &fakeProducer{}
	w := &Worker{Store: queue, Producer: producer, TopicPrefix: "prod.", Now: func() time.Time { return fixedNow }}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"ev-1", "ev-2"}, queue.sent)

	require.Len(t, producer.out, 2)
	first := producer.out[0]
	assert.Equal(t, "prod.booking.events.v1", first.topic)
	assert.Equal(t, "prod.calendar.events.v1", producer.out[1].topic)
	assert.Equal(t, "bk-1", first.key)
	assert.Equal(t, "application/cloudevents+json", first.headers["content-type"])

	var ce map[string]any
	require.NoError(t, json.Unmarshal(first.payload, &ce))
	assert.Equal(t, "ev-1", ce["id"])
	assert.Equal(t, "booking.canceled.v1", ce["type"])
	assert.Equal(t, "app://campbook", ce["source"])
	assert.Equal(t, map[string]any{"BookingID": "bk-1"}, ce["data"])
}

func TestDrainSchedulesRetryWithBackoff(t *testing.T) {
	queue := &fakeQueue{due: []*EventDocument{newDoc("ev-1", "booking.requested", 1)}}
	w := &Worker{
		Store:    queue,
		Producer: &fakeProducer{fail: errors.New("broker down")},
		Backoff:  []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		Now:      func() time.Time { return fixedNow },
	}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, fixedNow.Add(5*time.Second), queue.failed["ev-1"])
	assert.Empty(t, queue.sent)
}

func TestDrainDeadLettersAfterMaxAttempts(t *testing.T) {
	queue := &fakeQueue{due: []*EventDocument{newDoc("ev-1", "booking.requested", 4)}}
	w := &Worker{Store: queue, Producer: &fakeProducer{fail: errors.New("broker down")}, MaxAttempts: 5}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-1"}, queue.dead)
	assert.Empty(t, queue.failed)
}

func TestDrainRejectsInvalidPayload(t *testing.T) {
	doc := newDoc("ev-1", "booking.requested", 0)
	doc.Payload = []byte("not json")
	queue := &fakeQueue{due: []*EventDocument{doc}}
	producer := &fakeProducer{}
	w := &Worker{Store: queue, Producer: producer, Now: func() time.Time { return fixedNow }}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, producer.out)
	assert.Contains(t, queue.failed, "ev-1")
}

func TestRunRequiresDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "booking.events.v1", TopicFor("", "booking.no_show"))
	assert.Equal(t, "dev.orphan.events.v1", TopicFor("dev.", "orphan"))
}
