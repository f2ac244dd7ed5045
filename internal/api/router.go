package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	// Unauthenticated: the gateway posts inbound deliveries here.
	mux.HandleFunc("POST /webhook/sms", h.Webhook)

	mux.HandleFunc("POST /v1/messages/send", requireUser(h.SendMessage))
	mux.HandleFunc("GET /v1/conversations", requireUser(h.Conversations))
	mux.HandleFunc("GET /v1/conversations/messages", requireUser(h.ConversationMessages))
	mux.HandleFunc("GET /v1/unread-count", requireUser(h.UnreadCount))
	mux.HandleFunc("POST /v1/conversations/read", requireUser(h.MarkRead))
	mux.HandleFunc("POST /v1/conversations/unread", requireUser(h.MarkUnread))
	mux.HandleFunc("POST /v1/conversations/link", requireUser(h.LinkConversation))
	mux.HandleFunc("POST /v1/messages/link", requireUser(h.LinkMessages))
	mux.HandleFunc("GET /v1/settings", requireUser(h.Settings))
	mux.HandleFunc("GET /v1/boot", requireUser(h.Boot))

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("sms-inbox"))
	})

	return mux
}
