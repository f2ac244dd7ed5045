package api

import (
	"context"
	"net/http"
)

// The host application authenticates requests and forwards the user
// identity in this header. The webhook route bypasses it; everything else
// requires a non-guest user.
const userHeader = "X-User-Id"

type contextKey string

const userKey = contextKey("user")

func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(userHeader)
		if user == "" || user == "Guest" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "authentication required"})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}
