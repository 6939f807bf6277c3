// Package middlewares agrupa los middlewares HTTP del servicio.
//
// Orden esperado en el router: Recover, RequestID, SecurityHeaders,
// Metrics, Logging, y por ruta NoStore, RateLimit y RequireAuth.
package middlewares

import (
	"context"
	"net/http"
)

type ctxKeyUserID struct{}
type ctxKeyRequestID struct{}

// UserIDFrom retorna el user ID autenticado del contexto, si existe.
func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok && v != ""
}

func withUserID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKeyUserID{}, id))
}

// RequestIDFrom retorna el request ID del contexto, si existe.
func RequestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRequestID{}).(string)
	return v, ok && v != ""
}
