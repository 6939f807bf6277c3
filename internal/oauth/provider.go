// Package oauth define el contrato de los providers de login social.
package oauth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCode indica que el provider rechazó el authorization code
	// (vencido, ya usado o malformado). Es culpa del cliente.
	ErrInvalidCode = errors.New("oauth: invalid authorization code")

	// ErrProviderError indica un fallo del provider o de red.
	// Es transitorio y se reporta como 502.
	ErrProviderError = errors.New("oauth: provider error")
)

// UserInfo es el perfil normalizado que retorna un provider.
type UserInfo struct {
	// ProviderUserID es el identificador estable del usuario en el provider.
	ProviderUserID string
	// Email puede venir vacío si el usuario no lo concedió.
	Email    string
	Nickname string
	Picture  string
}

// Provider abstrae un proveedor de identidad externo (Kakao, Google).
type Provider interface {
	// Name retorna el nombre canónico ("kakao", "google").
	Name() string

	// AuthURL construye la URL de autorización con el state dado.
	AuthURL(state string) string

	// Exchange canjea el authorization code por el perfil del usuario.
	// Retorna ErrInvalidCode o ErrProviderError según la causa.
	Exchange(ctx context.Context, code string) (*UserInfo, error)
}
