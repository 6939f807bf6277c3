package repository

import (
	"context"
	"time"
)

// Estados del ciclo de vida de un usuario.
const (
	StatusActive            = "active"
	StatusPendingOnboarding = "pending_onboarding"
	StatusDisabled          = "disabled"
)

// User es la entidad de usuario.
// PasswordHash es nil para cuentas creadas solo por login social.
type User struct {
	ID           string
	Email        string
	PasswordHash *string
	Nickname     string
	Picture      string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository define el acceso a usuarios.
type UserRepository interface {
	// Create persiste un usuario nuevo.
	// Retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, u *User) error

	// GetByID retorna el usuario o ErrNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retorna el usuario o ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persiste cambios de perfil, status o password hash.
	// Retorna ErrNotFound si el usuario no existe.
	Update(ctx context.Context, u *User) error

	// Delete elimina el usuario y sus datos asociados. Idempotente.
	Delete(ctx context.Context, id string) error
}
