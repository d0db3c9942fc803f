package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// RequestMetadata attaches the caller's IP, user agent and request id to the
// context so committed mutations carry them into the audit trail.
// It must run after RequestID and TrustedRealIP.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithRequestMetadata(r.Context(), core.RequestMetadata{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
			RequestID: chimw.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
