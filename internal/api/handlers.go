package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Vonnie2507/sms-inbox/internal/model"
	"github.com/Vonnie2507/sms-inbox/internal/service"
)

// emptyTwiML is the fixed webhook response. The gateway only cares about a
// 200 with well-formed XML, success or not.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// InboxService is the slice of the inbox the HTTP layer needs.
type InboxService interface {
	Send(ctx context.Context, userID, recipient, body string, linkedType, linkedID, contactName *string) (service.SendResult, error)
	ReceiveInbound(ctx context.Context, from, body, providerMessageID string) error
	Conversations(ctx context.Context) ([]model.Conversation, error)
	ConversationMessages(ctx context.Context, phoneNumber string) ([]model.Message, error)
	UnreadCount(ctx context.Context, phoneNumber string) (int, error)
	MarkRead(ctx context.Context, phoneNumber string) (int, error)
	MarkUnread(ctx context.Context, phoneNumber string) (int, error)
	RelinkConversation(ctx context.Context, phoneNumber, targetType, targetID string) (int64, error)
	RelinkMessages(ctx context.Context, ids []string, targetType, targetID string) (int64, error)
	BootUnreadCount(ctx context.Context, userID string) int
	Settings() service.SettingsView
}

type Handler struct {
	inbox  InboxService
	logger *slog.Logger
}

func NewHandler(inbox InboxService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inbox: inbox, logger: logger.With(slog.String("component", "api"))}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Webhook receives inbound SMS deliveries from the gateway. Errors are
// logged but never surfaced: a non-200 would make the gateway retry
// forever.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Error("webhook form parse failed", "error", err)
		writeTwiML(w)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	sid := r.PostFormValue("MessageSid")

	if err := h.inbox.ReceiveInbound(r.Context(), from, body, sid); err != nil {
		h.logger.Error("inbound processing failed", "from", from, "sid", sid, "error", err)
	}

	writeTwiML(w)
}

type sendRequest struct {
	RecipientNumber string  `json:"recipient_number"`
	Message         string  `json:"message"`
	LinkedType      *string `json:"linked_type,omitempty"`
	LinkedID        *string `json:"linked_id,omitempty"`
	ContactName     *string `json:"contact_name,omitempty"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	res, err := h.inbox.Send(r.Context(), userFrom(r.Context()), req.RecipientNumber, req.Message, req.LinkedType, req.LinkedID, req.ContactName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"message_id":          res.MessageID,
		"provider_message_id": res.ProviderMessageID,
		"recipient_number":    res.Recipient,
	})
}

func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.inbox.Conversations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]conversationView, 0, len(convs))
	for _, c := range convs {
		items = append(items, toConversationView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	phoneNumber := r.URL.Query().Get("phone")
	if phoneNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "phone query parameter is required"})
		return
	}

	msgs, err := h.inbox.ConversationMessages(r.Context(), phoneNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, toMessageView(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.inbox.UnreadCount(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unread_count": count})
}

type conversationRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.markConversation(w, r, h.inbox.MarkRead)
}

func (h *Handler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	h.markConversation(w, r, h.inbox.MarkUnread)
}

func (h *Handler) markConversation(w http.ResponseWriter, r *http.Request, mutate func(context.Context, string) (int, error)) {
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "phone_number is required"})
		return
	}

	count, err := mutate(r.Context(), req.PhoneNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "new_unread_count": count})
}

type linkConversationRequest struct {
	PhoneNumber string `json:"phone_number"`
	TargetType  string `json:"target_type"`
	TargetID    string `json:"target_id"`
}

func (h *Handler) LinkConversation(w http.ResponseWriter, r *http.Request) {
	var req linkConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "phone_number is required"})
		return
	}

	n, err := h.inbox.RelinkConversation(r.Context(), req.PhoneNumber, req.TargetType, req.TargetID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}

type linkMessagesRequest struct {
	MessageIDs []string `json:"message_ids"`
	TargetType string   `json:"target_type"`
	TargetID   string   `json:"target_id"`
}

func (h *Handler) LinkMessages(w http.ResponseWriter, r *http.Request) {
	var req linkMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	n, err := h.inbox.RelinkMessages(r.Context(), req.MessageIDs, req.TargetType, req.TargetID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.inbox.Settings())
}

// Boot returns the session bootstrap payload so the UI can show the unread
// badge without a second round trip.
func (h *Handler) Boot(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":             user,
		"unread_sms_count": h.inbox.BootUnreadCount(r.Context(), user),
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": err.Error()})
	case errors.Is(err, service.ErrInvalidTarget), errors.Is(err, service.ErrNoSelection):
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
	case errors.Is(err, service.ErrNoMessages):
		// Nothing matched; not an error worth a failure status.
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrGateway):
		writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "error": err.Error()})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type conversationView struct {
	PhoneNumber   string  `json:"phone_number"`
	ContactName   *string `json:"contact_name,omitempty"`
	LastMessage   string  `json:"last_message"`
	LastDirection string  `json:"last_direction"`
	LastMessageAt string  `json:"last_message_at"`
	LinkedType    *string `json:"linked_type,omitempty"`
	LinkedID      *string `json:"linked_id,omitempty"`
	UnreadCount   int     `json:"unread_count"`
}

func toConversationView(c model.Conversation) conversationView {
	return conversationView{
		PhoneNumber:   c.PhoneNumber,
		ContactName:   c.ContactName,
		LastMessage:   c.LastMessage,
		LastDirection: string(c.LastDirection),
		LastMessageAt: c.LastMessageAt.UTC().Format(time.RFC3339),
		LinkedType:    c.LinkedType,
		LinkedID:      c.LinkedID,
		UnreadCount:   c.UnreadCount,
	}
}

type messageView struct {
	ID                string  `json:"id"`
	Direction         string  `json:"direction"`
	PhoneNumber       string  `json:"phone_number"`
	Body              string  `json:"body"`
	Status            string  `json:"status"`
	ProviderMessageID *string `json:"provider_message_id,omitempty"`
	LinkedType        *string `json:"linked_type,omitempty"`
	LinkedID          *string `json:"linked_id,omitempty"`
	ContactName       *string `json:"contact_name,omitempty"`
	SentBy            string  `json:"sent_by,omitempty"`
	SentAt            string  `json:"sent_at"`
	Read              bool    `json:"read"`
}

func toMessageView(m model.Message) messageView {
	return messageView{
		ID:                m.ID,
		Direction:         string(m.Direction),
		PhoneNumber:       m.PhoneNumber,
		Body:              m.Body,
		Status:            string(m.Status),
		ProviderMessageID: m.ProviderMessageID,
		LinkedType:        m.LinkedType,
		LinkedID:          m.LinkedID,
		ContactName:       m.ContactName,
		SentBy:            m.SentBy,
		SentAt:            m.SentAt.UTC().Format(time.RFC3339),
		Read:              m.Read,
	}
}

func writeTwiML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
