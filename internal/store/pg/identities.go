package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moguapp/moguauth/internal/domain/repository"
)

type identityRepo struct {
	pool *pgxpool.Pool
}

func (r *identityRepo) Create(ctx context.Context, id *repository.Identity) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO identity (id, user_id, provider, provider_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id.ID, id.UserID, id.Provider, id.ProviderUserID, id.CreatedAt,
	)
	return mapError(err)
}

func (r *identityRepo) GetByProvider(ctx context.Context, provider, providerUserID string) (*repository.Identity, error) {
	var id repository.Identity
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM identity
		WHERE provider = $1 AND provider_user_id = $2`,
		provider, providerUserID,
	).Scan(&id.ID, &id.UserID, &id.Provider, &id.ProviderUserID, &id.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &id, nil
}

func (r *identityRepo) ListByUser(ctx context.Context, userID string) ([]*repository.Identity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM identity
		WHERE user_id = $1
		ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*repository.Identity
	for rows.Next() {
		var id repository.Identity
		if err := rows.Scan(&id.ID, &id.UserID, &id.Provider, &id.ProviderUserID, &id.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		out = append(out, &id)
	}
	return out, mapError(rows.Err())
}
