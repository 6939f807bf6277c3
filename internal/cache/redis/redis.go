// Package redis implementa cache.Client sobre Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/moguapp/moguauth/internal/cache"
)

// Config configura la conexión.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Client es un cache sobre Redis, apto para múltiples instancias.
type Client struct {
	rdb    *goredis.Client
	prefix string
}

// New abre la conexión y verifica con un ping.
func New(ctx context.Context, cfg Config) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Client{rdb: rdb, prefix: cfg.Prefix}, nil
}

// Close cierra la conexión.
func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, c.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", cache.ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis: get: %w", err)
	}
	return v, nil
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: del: %w", err)
	}
	return nil
}

// Incr usa INCR + EXPIRE NX: el TTL solo se fija al crear la clave,
// preservando la ventana fija del rate limiter.
func (c *Client) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := c.key(key)
	n, err := c.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: incr: %w", err)
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, k, ttl).Err(); err != nil {
			return n, fmt.Errorf("redis: expire: %w", err)
		}
	}
	return n, nil
}
