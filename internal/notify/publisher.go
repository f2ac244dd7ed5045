package notify

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

const (
	EventNewSMS      = "new_sms"
	EventUnreadCount = "unread_count_update"

	previewMax = 50
)

// NewSMSEvent announces one durably logged inbound message.
type NewSMSEvent struct {
	Sender   string `json:"sender"`
	Preview  string `json:"preview"`
	Phone    string `json:"phone"`
	NewCount int    `json:"new_count"`
}

// UnreadCountEvent carries the fresh global unread count after any
// read/unread mutation.
type UnreadCountEvent struct {
	NewCount int `json:"new_count"`
}

// Publisher fans events out to every subscribed user. Delivery is
// best-effort and at-most-once: implementations log failures and never
// return them.
type Publisher interface {
	NewSMS(ctx context.Context, ev NewSMSEvent)
	UnreadCount(ctx context.Context, count int)
}

// AudienceProvider yields the user identities entitled to inbox events.
type AudienceProvider interface {
	Subscribers(ctx context.Context) ([]string, error)
}

// Preview shortens a message body for notification payloads: at most 50
// runes, with an ellipsis suffix when truncated.
func Preview(body string) string {
	if utf8.RuneCountInString(body) <= previewMax {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewMax]) + "..."
}

// NopPublisher drops all events. Used when no realtime backend is
// configured.
type NopPublisher struct{}

func (NopPublisher) NewSMS(ctx context.Context, ev NewSMSEvent) {}

func (NopPublisher) UnreadCount(ctx context.Context, count int) {}

// AsyncPublisher dispatches each event on its own goroutine so fan-out is
// never awaited by the triggering operation. Panics in the underlying
// publisher are recovered and logged.
type AsyncPublisher struct {
	inner  Publisher
	logger *slog.Logger
}

func NewAsyncPublisher(inner Publisher, logger *slog.Logger) *AsyncPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncPublisher{inner: inner, logger: logger}
}

func (p *AsyncPublisher) NewSMS(ctx context.Context, ev NewSMSEvent) {
	go p.dispatch(func(ctx context.Context) {
		p.inner.NewSMS(ctx, ev)
	})
}

func (p *AsyncPublisher) UnreadCount(ctx context.Context, count int) {
	go p.dispatch(func(ctx context.Context) {
		p.inner.UnreadCount(ctx, count)
	})
}

func (p *AsyncPublisher) dispatch(fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("notification dispatch panic recovered", "panic", r)
		}
	}()

	// The triggering request may complete before fan-out does, so events
	// run on a fresh context.
	fn(context.Background())
}
