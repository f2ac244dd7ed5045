package repo

import (
	"context"

	"github.com/Vonnie2507/sms-inbox/internal/model"
)

// OutboundLink is the business-record link carried by a previous outbound
// message, used to resolve the identity of an inbound number.
type OutboundLink struct {
	LinkedType  string
	LinkedID    string
	ContactName string
}

// MessageRepository is the system of record for the message log. Messages
// are never deleted; apart from status, provider id and relinking, rows are
// append-only.
type MessageRepository interface {
	// Append inserts a message and returns its id. When m.ID is empty a new
	// id is assigned.
	Append(ctx context.Context, m model.Message) (string, error)

	// UpdateStatus transitions an outbound message out of Sending and
	// records the provider's message id.
	UpdateStatus(ctx context.Context, id string, status model.Status, providerMessageID string) error

	// MarkFailed transitions an outbound message to Failed and records the
	// gateway error. The row is preserved, never rolled back.
	MarkFailed(ctx context.Context, id string, reason string) error

	// ListByPhone returns the full conversation for a number, oldest first.
	ListByPhone(ctx context.Context, phone string) ([]model.Message, error)

	// ListConversations returns one row per distinct phone number: the
	// latest message plus the unread inbound count, newest conversation
	// first. Always recomputed from the log.
	ListConversations(ctx context.Context) ([]model.Conversation, error)

	// CountUnread counts unread inbound messages for one number, or
	// system-wide when phone is empty.
	CountUnread(ctx context.Context, phone string) (int, error)

	// MarkRead sets read on every unread inbound message for a number and
	// returns the number of rows changed.
	MarkRead(ctx context.Context, phone string) (int64, error)

	// MarkUnread clears read on only the single most recent inbound message
	// for a number.
	MarkUnread(ctx context.Context, phone string) (int64, error)

	// RelinkByPhone rewrites the record link on every message of a
	// conversation and returns the number of rows changed.
	RelinkByPhone(ctx context.Context, phone, linkedType, linkedID string) (int64, error)

	// RelinkByIDs rewrites the record link on the selected messages.
	RelinkByIDs(ctx context.Context, ids []string, linkedType, linkedID string) (int64, error)

	// FindRecentOutboundLink returns the link of the most recent outbound
	// message whose phone number matches any variant and which carries a
	// record link, or nil when there is none.
	FindRecentOutboundLink(ctx context.Context, variants []string) (*OutboundLink, error)
}
