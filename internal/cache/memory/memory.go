// Package memory implementa cache.Client sobre go-cache.
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/moguapp/moguauth/internal/cache"
)

// Client es un cache en memoria de proceso.
type Client struct {
	c *gocache.Cache
	// mu serializa Incr; go-cache no ofrece upsert atómico con TTL.
	mu sync.Mutex
}

// New crea un cache con limpieza periódica de expirados.
func New() *Client {
	return &Client{
		c: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (m *Client) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", cache.ErrMiss
	}
	s, ok := v.(string)
	if !ok {
		return "", cache.ErrMiss
	}
	return s, nil
}

func (m *Client) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Client) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Client) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.c.Get(key); !ok {
		m.c.Set(key, int64(1), ttl)
		return 1, nil
	}
	n, err := m.c.IncrementInt64(key, 1)
	if err != nil {
		// La clave expiró entre el Get y el Increment.
		m.c.Set(key, int64(1), ttl)
		return 1, nil
	}
	return n, nil
}
