// Package cache define la interfaz de cache efímero del servicio.
//
// Se usa para el estado anti-CSRF del flujo OAuth y para los contadores
// del rate limiter. Backends: memoria (proceso único) y Redis.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss indica que la clave no existe o ya expiró.
var ErrMiss = errors.New("cache: miss")

// Client es la interfaz mínima de cache con TTL.
type Client interface {
	// Get retorna el valor o ErrMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda el valor con el TTL dado.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina la clave. No falla si no existe.
	Delete(ctx context.Context, key string) error

	// Incr incrementa un contador y retorna el nuevo valor.
	// Si la clave no existe la crea en 1 con el TTL dado.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
