// Package rate implementa rate limiting por ventana fija sobre cache.Client.
//
// Con backend Redis el límite es global entre instancias; con el backend
// en memoria es por proceso. La precisión de ventana fija es suficiente
// para frenar fuerza bruta en login.
package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/moguapp/moguauth/internal/cache"
	"github.com/moguapp/moguauth/internal/observability/logger"
)

// Limiter limita eventos por clave dentro de una ventana fija.
type Limiter struct {
	cache  cache.Client
	window time.Duration
}

// NewLimiter crea un limiter sobre el cache dado.
func NewLimiter(c cache.Client, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{cache: c, window: window}
}

// Allow registra un evento para (scope, key) y reporta si está dentro
// del límite. Ante un error del backend permite el request: es preferible
// degradar el límite a bloquear logins legítimos.
func (l *Limiter) Allow(ctx context.Context, scope, key string, limit int) bool {
	if limit <= 0 {
		return true
	}
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	k := fmt.Sprintf("rate:%s:%s:%d", scope, key, bucket)

	n, err := l.cache.Incr(ctx, k, l.window)
	if err != nil {
		logger.From(ctx).Warn("rate limiter backend error, allowing request",
			logger.Component("rate"), logger.Err(err))
		return true
	}
	return n <= int64(limit)
}
