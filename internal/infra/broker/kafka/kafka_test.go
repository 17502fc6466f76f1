package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerPublishesWithHeaders(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "booking.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "bk-1" {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) != 1 || string(msg.Headers[0].Key) != "content-type" {
			return errors.New("missing content-type header")
		}
		return nil
	})
	p := NewProducerFrom(sp)

	err := p.Publish(context.Background(), "booking.events.v1", "bk-1", []byte(`{}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducerHonoursCanceledContext(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(sp)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

type memoryInbox struct {
	seen map[string]bool
}

func (m *memoryInbox) Seen(_ context.Context, id string) (bool, error) { return m.seen[id], nil }

func (m *memoryInbox) Mark(_ context.Context, id string) error {
	m.seen[id] = true
	return nil
}

type recordingHandler struct {
	names []string
	data  []string
	fail  error
}

func (h *recordingHandler) Handle(_ context.Context, name string, payload []byte) error {
	if h.fail != nil {
		return h.fail
	}
	h.names = append(h.names, name)
	h.data = append(h.data, string(payload))
	return nil
}

func message(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "booking.events.v1", Value: []byte(value)}
}

func TestDispatcherDeliversOnce(t *testing.T) {
	inbox := &memoryInbox{seen: map[string]bool{}}
	handler := &recordingHandler{}
	d := CloudEventDispatcher{Inbox: inbox, Handler: handler}
	msg := message(`{"specversion":"1.0","id":"ev-1","type":"booking.canceled.v1","data":{"BookingID":"bk-1"}}`)

	require.NoError(t, d.Handle(context.Background(), msg))
	require.NoError(t, d.Handle(context.Background(), msg))

	assert.Equal(t, []string{"booking.canceled"}, handler.names)
	assert.JSONEq(t, `{"BookingID":"bk-1"}`, handler.data[0])
	assert.True(t, inbox.seen["ev-1"])
}

func TestDispatcherLeavesFailedEventsUnmarked(t *testing.T) {
	inbox := &memoryInbox{seen: map[string]bool{}}
	d := CloudEventDispatcher{Inbox: inbox, Handler: &recordingHandler{fail: errors.New("smtp down")}}

	err := d.Handle(context.Background(), message(`{"id":"ev-2","type":"booking.confirmed.v1","data":{}}`))
	require.Error(t, err)
	assert.False(t, inbox.seen["ev-2"])
}

func TestDispatcherDropsUndecodableMessages(t *testing.T) {
	handler := &recordingHandler{}
	d := CloudEventDispatcher{Handler: handler}
	assert.NoError(t, d.Handle(context.Background(), message("garbage")))
	assert.NoError(t, d.Handle(context.Background(), message(`{"data":{}}`)))
	assert.Empty(t, handler.names)
}
