package notify

import (
	"context"
	"log/slog"
	"sync"

	"campbook/internal/app/policies"
)

// Message is a notification that was handed to the notifier.
type Message struct {
	To       string
	Template string
	Data     any
}

// LogNotifier writes notifications to the structured log and keeps the last few in memory.
type LogNotifier struct {
	Logger *slog.Logger
	Keep   int

	mu   sync.Mutex
	sent []Message
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger, Keep: 100}
}

func (n *LogNotifier) Send(ctx context.Context, to string, template string, data any) error {
	if n.Logger != nil {
		n.Logger.InfoContext(ctx, "notification sent", "to", to, "template", template, "data", data)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Message{To: to, Template: template, Data: data})
	if n.Keep > 0 && len(n.sent) > n.Keep {
		n.sent = n.sent[len(n.sent)-n.Keep:]
	}
	return nil
}

func (n *LogNotifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.sent...)
}

var _ policies.Notifier = (*LogNotifier)(nil)
