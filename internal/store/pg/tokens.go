package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moguapp/moguauth/internal/domain/repository"
)

type tokenRepo struct {
	pool *pgxpool.Pool
}

const tokenCols = `id, user_id, token_hash, issued_at, expires_at, used, replaced_by, revoked_at`

func (r *tokenRepo) Create(ctx context.Context, t *repository.RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_token (id, user_id, token_hash, issued_at, expires_at, used, replaced_by, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.TokenHash, t.IssuedAt, t.ExpiresAt, t.Used, t.ReplacedBy, t.RevokedAt,
	)
	return mapError(err)
}

func (r *tokenRepo) GetByHash(ctx context.Context, hash string) (*repository.RefreshToken, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tokenCols+` FROM refresh_token WHERE token_hash = $1`, hash)
	return scanToken(row)
}

// Rotate consume el token viejo y persiste el sucesor en una transacción.
// El lock de fila serializa rotaciones concurrentes del mismo token; el
// UPDATE condicional sobre used=FALSE garantiza un solo ganador incluso
// ante reintentos. Un reuse detectado revoca el linaje completo en esta
// misma transacción: el lock de fila ya se tomó después del commit de la
// rotación legítima, así que el CTE ve al sucesor.
func (r *tokenRepo) Rotate(ctx context.Context, oldHash string, next *repository.RefreshToken, now time.Time) (*repository.RotateResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+tokenCols+`
		FROM refresh_token
		WHERE token_hash = $1
		FOR UPDATE`,
		oldHash,
	)
	old, err := scanToken(row)
	if err != nil {
		return nil, err
	}

	// Orden de chequeo fijo: un token vencido reporta siempre expiración,
	// aunque además esté consumido.
	if !now.Before(old.ExpiresAt) {
		return nil, repository.ErrTokenExpired
	}
	if old.Used || old.RevokedAt != nil {
		return nil, r.revokeLineageTx(ctx, tx, old.ID)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE refresh_token
		SET used = TRUE, replaced_by = $2
		WHERE id = $1 AND used = FALSE AND revoked_at IS NULL`,
		old.ID, next.ID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, r.revokeLineageTx(ctx, tx, old.ID)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_token (id, user_id, token_hash, issued_at, expires_at, used, replaced_by, revoked_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NULL, NULL)`,
		next.ID, next.UserID, next.TokenHash, next.IssuedAt, next.ExpiresAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapError(err)
	}

	old.Used = true
	old.ReplacedBy = &next.ID
	return &repository.RotateResult{Old: old, New: next}, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_token
		SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL`,
		id,
	)
	return mapError(err)
}

// revokeLineageTx sigue la cadena replaced_by desde startID con un CTE
// recursivo y revoca todos los descendientes aún no revocados, dentro de
// la transacción que detectó el reuse. Commitea y retorna ErrTokenReused;
// una falla de la revocación se propaga en lugar del sentinel.
func (r *tokenRepo) revokeLineageTx(ctx context.Context, tx pgx.Tx, startID string) error {
	_, err := tx.Exec(ctx, `
		WITH RECURSIVE lineage AS (
			SELECT id, replaced_by FROM refresh_token WHERE id = $1
			UNION ALL
			SELECT rt.id, rt.replaced_by
			FROM refresh_token rt
			JOIN lineage l ON rt.id = l.replaced_by
		)
		UPDATE refresh_token
		SET revoked_at = now()
		WHERE id IN (SELECT id FROM lineage) AND revoked_at IS NULL`,
		startID,
	)
	if err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err)
	}
	return repository.ErrTokenReused
}

func (r *tokenRepo) RevokeAllByUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_token
		SET revoked_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL`,
		userID,
	)
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, now time.Time, retain time.Duration) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM refresh_token
		WHERE expires_at < $1`,
		now.Add(-retain),
	)
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row rowScanner) (*repository.RefreshToken, error) {
	var t repository.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt,
		&t.Used, &t.ReplacedBy, &t.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapError(err)
	}
	return &t, nil
}
