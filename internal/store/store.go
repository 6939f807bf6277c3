// Package store construye el conjunto de repositorios según el driver
// configurado. Los adapters concretos viven en los subpaquetes pg y memory.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moguapp/moguauth/internal/config"
	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/store/memory"
	"github.com/moguapp/moguauth/internal/store/pg"
)

// Store agrupa los repositorios del servicio.
type Store struct {
	Users      repository.UserRepository
	Identities repository.IdentityRepository
	Tokens     repository.TokenRepository

	// Ping verifica conectividad con el backend. Usado por /readyz.
	Ping func(ctx context.Context) error

	// Pool expone el pool de postgres para migraciones. Nil en memoria.
	Pool *pgxpool.Pool

	closer func()
}

// Open construye el Store según cfg.Storage.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	switch cfg.Driver {
	case "postgres":
		adapter, err := pg.New(ctx, pg.Config{
			DSN:      cfg.DSN,
			MaxConns: cfg.MaxConns,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("store: postgres: %w", err)
		}
		return &Store{
			Users:      adapter.Users(),
			Identities: adapter.Identities(),
			Tokens:     adapter.Tokens(),
			Ping:       adapter.Ping,
			Pool:       adapter.Pool(),
			closer:     adapter.Close,
		}, nil

	case "memory":
		m := memory.New()
		return &Store{
			Users:      m.Users(),
			Identities: m.Identities(),
			Tokens:     m.Tokens(),
			Ping:       func(context.Context) error { return nil },
			closer:     func() {},
		}, nil

	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// Close libera las conexiones del backend.
func (s *Store) Close() {
	if s.closer != nil {
		s.closer()
	}
}
