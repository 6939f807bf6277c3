package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/moguapp/moguauth/internal/observability/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID asigna un ID a cada request, lo propaga en el response header
// y deja en el contexto un logger scoped con ese ID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		ctx = logger.ToContext(ctx, logger.With(logger.RequestID(id)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
