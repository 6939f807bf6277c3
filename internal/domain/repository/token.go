package repository

import (
	"context"
	"time"
)

// RefreshToken es el registro persistido de un refresh token.
// TokenHash es el SHA-256 hex del valor opaco; el valor en claro nunca
// toca la base.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Used      bool
	// ReplacedBy apunta al ID del sucesor tras una rotación.
	// Permite recorrer el linaje hacia adelante en detección de replay.
	ReplacedBy *string
	RevokedAt  *time.Time
}

// RotateResult es el resultado de una rotación exitosa.
type RotateResult struct {
	// Old es el registro consumido (used=true, ReplacedBy poblado).
	Old *RefreshToken
	// New es el sucesor recién creado.
	New *RefreshToken
}

// TokenRepository define el acceso a refresh tokens.
//
// Rotate es la operación crítica: debe ser atómica de modo que entre N
// rotaciones concurrentes del mismo token exactamente una gane.
type TokenRepository interface {
	// Create persiste un refresh token nuevo.
	Create(ctx context.Context, t *RefreshToken) error

	// GetByHash retorna el registro para un hash o ErrNotFound.
	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// Rotate consume el token identificado por oldHash y persiste next
	// como su sucesor, enlazando ReplacedBy, todo en una sola operación
	// atómica. El orden de chequeo es fijo:
	//
	//	ErrNotFound      si el hash no existe
	//	ErrTokenExpired  si expires_at ya pasó (aunque esté usado)
	//	ErrTokenReused   si used=true o revoked_at != nil
	//
	// Antes de retornar ErrTokenReused, el token presentado y todos sus
	// sucesores (cadena ReplacedBy) quedan revocados dentro de la misma
	// operación atómica que detectó el reuse; si esa revocación falla, la
	// falla se propaga en lugar de ErrTokenReused.
	//
	// En caso de carrera, exactamente una llamada retorna RotateResult;
	// las demás reciben ErrTokenReused.
	Rotate(ctx context.Context, oldHash string, next *RefreshToken, now time.Time) (*RotateResult, error)

	// Revoke marca un token como revocado. Idempotente.
	Revoke(ctx context.Context, id string) error

	// RevokeAllByUser revoca todos los tokens vivos de un usuario.
	// Retorna cuántos registros revocó.
	RevokeAllByUser(ctx context.Context, userID string) (int, error)

	// DeleteExpired elimina registros vencidos hace más de retain.
	// Pensado para un job de limpieza periódico.
	DeleteExpired(ctx context.Context, now time.Time, retain time.Duration) (int, error)
}
