// Package middleware contains HTTP middleware for the controller API.
package middleware

import (
	"log/slog"
	"net/http"

	"handoff/internal/logger"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a correlation ID to every request. An inbound
// X-Request-ID is honored so gateway-assigned IDs survive; otherwise a new
// one is generated.
func RequestID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			ctx := logger.WithRequestID(r.Context(), reqID)
			w.Header().Set(requestIDHeader, reqID)

			logger.FromContext(ctx, base).Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
