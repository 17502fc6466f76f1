package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
)

// Inbox records which events a consumer already handled.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// EventHandler receives the domain event name and its JSON data.
type EventHandler interface {
	Handle(ctx context.Context, name string, payload []byte) error
}

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CloudEventDispatcher unwraps CloudEvents envelopes and hands each event to Handler
// once, using Inbox to drop redeliveries.
type CloudEventDispatcher struct {
	Inbox   Inbox
	Handler EventHandler
	Logger  *slog.Logger
}

func (d CloudEventDispatcher) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		// Undecodable messages are acknowledged and dropped.
		d.warn(ctx, "undecodable event skipped", msg, err)
		return nil
	}
	if evt.ID == "" || evt.Type == "" {
		d.warn(ctx, "event without id or type skipped", msg, nil)
		return nil
	}
	if d.Inbox != nil {
		seen, err := d.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	name := strings.TrimSuffix(evt.Type, ".v1")
	if err := d.Handler.Handle(ctx, name, evt.Data); err != nil {
		return fmt.Errorf("kafka: handle %s %s: %w", name, evt.ID, err)
	}
	if d.Inbox != nil {
		return d.Inbox.Mark(ctx, evt.ID)
	}
	return nil
}

func (d CloudEventDispatcher) warn(ctx context.Context, msg string, m *sarama.ConsumerMessage, err error) {
	if d.Logger == nil {
		return
	}
	d.Logger.WarnContext(ctx, msg, "topic", m.Topic, "offset", m.Offset, "error", err)
}
