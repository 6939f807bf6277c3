package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moguapp/moguauth/internal/domain/repository"
)

type userRepo struct {
	pool *pgxpool.Pool
}

const userCols = `id, email, password_hash, nickname, picture, status, created_at, updated_at`

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_user (id, email, password_hash, nickname, picture, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.PasswordHash, u.Nickname, u.Picture, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	return mapError(err)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE email = $1`, email)
	return scanUser(row)
}

func (r *userRepo) Update(ctx context.Context, u *repository.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app_user
		SET email = $2, password_hash = $3, nickname = $4, picture = $5, status = $6, updated_at = $7
		WHERE id = $1`,
		u.ID, u.Email, u.PasswordHash, u.Nickname, u.Picture, u.Status, u.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete borra el usuario; identidades y refresh tokens caen por cascade.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	return mapError(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Nickname, &u.Picture,
		&u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}
