package repository

import (
	"context"
	"time"
)

// Identity vincula un usuario local con una cuenta de un provider social.
// El par (Provider, ProviderUserID) es único.
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// IdentityRepository define el acceso a identidades sociales.
type IdentityRepository interface {
	// Create persiste un vínculo nuevo.
	// Retorna ErrConflict si (provider, provider_user_id) ya existe.
	Create(ctx context.Context, id *Identity) error

	// GetByProvider retorna el vínculo para (provider, providerUserID)
	// o ErrNotFound.
	GetByProvider(ctx context.Context, provider, providerUserID string) (*Identity, error)

	// ListByUser retorna todos los vínculos de un usuario.
	ListByUser(ctx context.Context, userID string) ([]*Identity, error)
}
