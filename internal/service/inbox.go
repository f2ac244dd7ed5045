package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vonnie2507/sms-inbox/internal/cache"
	"github.com/Vonnie2507/sms-inbox/internal/config"
	"github.com/Vonnie2507/sms-inbox/internal/model"
	"github.com/Vonnie2507/sms-inbox/internal/notify"
	"github.com/Vonnie2507/sms-inbox/internal/phone"
	"github.com/Vonnie2507/sms-inbox/internal/repo"
	"github.com/Vonnie2507/sms-inbox/internal/resolve"
)

// GatewayClient sends one SMS through the provider and returns its message
// id.
type GatewayClient interface {
	Send(ctx context.Context, from, to, body string) (string, error)
}

// IdentityResolver matches an inbound number to a linked business record.
type IdentityResolver interface {
	Resolve(ctx context.Context, rawNumber, defaultCountryCode string) resolve.Identity
}

// allowedLinkTargets is the fixed allow-list of record types a conversation
// or message may be linked to.
var allowedLinkTargets = map[string]struct{}{
	"Opportunity": {},
	"Lead":        {},
	"Project":     {},
	"Customer":    {},
	"Contact":     {},
}

// SendResult reports a completed (or attempted) outbound send.
type SendResult struct {
	MessageID         string
	ProviderMessageID string
	Recipient         string
}

// SettingsView is the only settings surface exposed to callers; credentials
// never leave the configuration.
type SettingsView struct {
	Enabled      bool   `json:"enabled"`
	SenderNumber string `json:"sender_number"`
}

// Inbox is the conversation and notification engine: it logs messages,
// derives conversations and unread counts from the log, and fans out
// realtime events.
type Inbox struct {
	messages  repo.MessageRepository
	resolver  IdentityResolver
	gateway   GatewayClient
	publisher notify.Publisher
	receipts  cache.ReceiptCache
	sms       config.SMSConfig
	logger    *slog.Logger
}

func NewInbox(
	messages repo.MessageRepository,
	resolver IdentityResolver,
	gateway GatewayClient,
	publisher notify.Publisher,
	receipts cache.ReceiptCache,
	sms config.SMSConfig,
	logger *slog.Logger,
) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		messages:  messages,
		resolver:  resolver,
		gateway:   gateway,
		publisher: publisher,
		receipts:  receipts,
		sms:       sms,
		logger:    logger.With(slog.String("service", "inbox")),
	}
}

func (s *Inbox) Settings() SettingsView {
	return SettingsView{
		Enabled:      s.sms.Enabled,
		SenderNumber: s.sms.SenderNumber,
	}
}

// Send normalizes the recipient, logs a Sending row, calls the gateway and
// records the outcome. A gateway failure leaves the row in place as Failed
// with the error on it.
func (s *Inbox) Send(ctx context.Context, userID, recipient, body string, linkedType, linkedID, contactName *string) (SendResult, error) {
	if !s.sms.Enabled {
		return SendResult{}, fmt.Errorf("%w: enable SMS in settings first", ErrNotConfigured)
	}
	if s.sms.AccountSID == "" || s.sms.AuthToken == "" || s.sms.SenderNumber == "" {
		return SendResult{}, fmt.Errorf("%w: gateway credentials or sender number missing", ErrNotConfigured)
	}

	normalized := phone.Normalize(recipient, s.sms.DefaultCountryCode)
	if normalized == "" {
		return SendResult{}, errors.New("recipient number must not be empty")
	}
	if body == "" {
		return SendResult{}, errors.New("message body must not be empty")
	}

	id, err := s.messages.Append(ctx, model.Message{
		Direction:   model.Outbound,
		PhoneNumber: normalized,
		Body:        body,
		Status:      model.Sending,
		LinkedType:  linkedType,
		LinkedID:    linkedID,
		ContactName: contactName,
		SentBy:      userID,
		SentAt:      time.Now().UTC(),
		// Outbound messages never count as unread.
		Read: true,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to log outbound message: %w", err)
	}

	sid, err := s.gateway.Send(ctx, s.sms.SenderNumber, normalized, body)
	if err != nil {
		s.logger.Error("gateway send failed", "message_id", id, "phone", normalized, "error", err)
		if markErr := s.messages.MarkFailed(ctx, id, err.Error()); markErr != nil {
			s.logger.Error("failed to record send failure", "message_id", id, "error", markErr)
		}
		return SendResult{MessageID: id, Recipient: normalized}, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if err := s.messages.UpdateStatus(ctx, id, model.Sent, sid); err != nil {
		// The provider accepted the message; the row stays in Sending.
		s.logger.Error("failed to record gateway ack", "message_id", id, "sid", sid, "error", err)
		return SendResult{MessageID: id, ProviderMessageID: sid, Recipient: normalized}, fmt.Errorf("message sent but status update failed: %w", err)
	}

	return SendResult{MessageID: id, ProviderMessageID: sid, Recipient: normalized}, nil
}

// ReceiveInbound handles one gateway webhook delivery. A missing sender or
// body is a no-op. Once the message is durably logged a new_sms event is
// fanned out with the fresh global unread count.
func (s *Inbox) ReceiveInbound(ctx context.Context, from, body, providerMessageID string) error {
	if from == "" || body == "" {
		return nil
	}

	seen, err := s.receipts.SeenInbound(ctx, providerMessageID)
	if err != nil {
		// Dedupe is best-effort; treat the delivery as first.
		s.logger.Error("receipt cache lookup failed", "sid", providerMessageID, "error", err)
	} else if seen {
		s.logger.Info("duplicate webhook delivery dropped", "sid", providerMessageID)
		return nil
	}

	normalized := phone.Normalize(from, s.sms.DefaultCountryCode)
	identity := s.resolver.Resolve(ctx, from, s.sms.DefaultCountryCode)

	m := model.Message{
		Direction:   model.Inbound,
		PhoneNumber: normalized,
		Body:        body,
		Status:      model.Received,
		SentAt:      time.Now().UTC(),
		Read:        false,
	}
	if providerMessageID != "" {
		m.ProviderMessageID = &providerMessageID
	}
	if identity.LinkedType != "" {
		m.LinkedType = &identity.LinkedType
		m.LinkedID = &identity.LinkedID
	}
	if identity.DisplayName != "" {
		m.ContactName = &identity.DisplayName
	}

	if _, err := s.messages.Append(ctx, m); err != nil {
		return fmt.Errorf("failed to log inbound message: %w", err)
	}

	count := s.globalUnread(ctx)

	sender := identity.DisplayName
	if sender == "" {
		sender = normalized
	}
	s.publisher.NewSMS(ctx, notify.NewSMSEvent{
		Sender:   sender,
		Preview:  notify.Preview(body),
		Phone:    normalized,
		NewCount: count,
	})

	return nil
}

func (s *Inbox) Conversations(ctx context.Context) ([]model.Conversation, error) {
	return s.messages.ListConversations(ctx)
}

func (s *Inbox) ConversationMessages(ctx context.Context, phoneNumber string) ([]model.Message, error) {
	return s.messages.ListByPhone(ctx, phoneNumber)
}

// UnreadCount counts unread inbound messages for one number, or system-wide
// when phoneNumber is empty.
func (s *Inbox) UnreadCount(ctx context.Context, phoneNumber string) (int, error) {
	return s.messages.CountUnread(ctx, phoneNumber)
}

// MarkRead marks every inbound message of a conversation read, fans out the
// fresh global count and returns it.
func (s *Inbox) MarkRead(ctx context.Context, phoneNumber string) (int, error) {
	if _, err := s.messages.MarkRead(ctx, phoneNumber); err != nil {
		return 0, err
	}

	count := s.globalUnread(ctx)
	s.publisher.UnreadCount(ctx, count)
	return count, nil
}

// MarkUnread flags only the most recent inbound message of a conversation
// as unread, fans out the fresh global count and returns it.
func (s *Inbox) MarkUnread(ctx context.Context, phoneNumber string) (int, error) {
	if _, err := s.messages.MarkUnread(ctx, phoneNumber); err != nil {
		return 0, err
	}

	count := s.globalUnread(ctx)
	s.publisher.UnreadCount(ctx, count)
	return count, nil
}

// RelinkConversation rewrites the record link on every message of a
// conversation. Returns the number of messages updated.
func (s *Inbox) RelinkConversation(ctx context.Context, phoneNumber, targetType, targetID string) (int64, error) {
	if _, ok := allowedLinkTargets[targetType]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, targetType)
	}

	n, err := s.messages.RelinkByPhone(ctx, phoneNumber, targetType, targetID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoMessages
	}
	return n, nil
}

// RelinkMessages rewrites the record link on the selected messages.
func (s *Inbox) RelinkMessages(ctx context.Context, ids []string, targetType, targetID string) (int64, error) {
	if _, ok := allowedLinkTargets[targetType]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, targetType)
	}
	if len(ids) == 0 {
		return 0, ErrNoSelection
	}

	n, err := s.messages.RelinkByIDs(ctx, ids, targetType, targetID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoMessages
	}
	return n, nil
}

// BootUnreadCount is the unread badge attached to session state on login.
// Guests get 0, and lookup failures degrade to 0 rather than breaking the
// session bootstrap.
func (s *Inbox) BootUnreadCount(ctx context.Context, userID string) int {
	if userID == "" || userID == "Guest" {
		return 0
	}
	return s.globalUnread(ctx)
}

func (s *Inbox) globalUnread(ctx context.Context) int {
	count, err := s.messages.CountUnread(ctx, "")
	if err != nil {
		s.logger.Error("unread count lookup failed", "error", err)
		return 0
	}
	return count
}
