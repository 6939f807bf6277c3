// Package pg implementa los repositorios sobre PostgreSQL usando pgx.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moguapp/moguauth/internal/domain/repository"
)

// Config configura el pool de conexiones.
type Config struct {
	DSN      string
	MaxConns int32
	Timeout  time.Duration
}

// Adapter encapsula el pool y expone los repositorios.
type Adapter struct {
	pool *pgxpool.Pool
}

// New abre el pool y verifica conectividad con un ping.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("pg: pool: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Adapter{pool: pool}, nil
}

// Close cierra el pool.
func (a *Adapter) Close() { a.pool.Close() }

// Ping verifica conectividad. Usado por /readyz.
func (a *Adapter) Ping(ctx context.Context) error { return a.pool.Ping(ctx) }

// Pool expone el pool subyacente para migraciones.
func (a *Adapter) Pool() *pgxpool.Pool { return a.pool }

// Users retorna el repositorio de usuarios.
func (a *Adapter) Users() repository.UserRepository { return &userRepo{pool: a.pool} }

// Identities retorna el repositorio de identidades sociales.
func (a *Adapter) Identities() repository.IdentityRepository { return &identityRepo{pool: a.pool} }

// Tokens retorna el repositorio de refresh tokens.
func (a *Adapter) Tokens() repository.TokenRepository { return &tokenRepo{pool: a.pool} }

// mapError traduce errores de pgx a los sentinelas de repository.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrConflict
	}
	return err
}
