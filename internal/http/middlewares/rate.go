package middlewares

import (
	"net"
	"net/http"
	"strings"

	httperrors "github.com/moguapp/moguauth/internal/http/errors"
	"github.com/moguapp/moguauth/internal/rate"
)

// RateLimit limita requests por IP dentro del scope dado.
// Con limit <= 0 el middleware es un passthrough.
func RateLimit(l *rate.Limiter, scope string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.Context(), scope, clientIP(r), limit) {
				httperrors.Write(w, r, httperrors.TooManyRequests())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefiere X-Forwarded-For cuando hay proxy delante.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
