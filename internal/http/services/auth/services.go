// Package auth implementa la lógica de negocio de autenticación.
//
// Cada operación vive en su propio service con dependencias compartidas
// via Deps. Los services retornan errores sentinela; los controllers los
// traducen a respuestas HTTP.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moguapp/moguauth/internal/cache"
	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/http/dto"
	"github.com/moguapp/moguauth/internal/jwt"
	"github.com/moguapp/moguauth/internal/oauth"
	"github.com/moguapp/moguauth/internal/security/password"
	"github.com/moguapp/moguauth/internal/security/token"
)

var (
	// ErrInvalidCredentials cubre email inexistente, password incorrecto y
	// cuentas solo-sociales. Un único error para no filtrar cuál falló.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrEmailTaken indica registro con un email ya existente.
	ErrEmailTaken = errors.New("auth: email already registered")

	// ErrInvalidEmail indica un email malformado en el registro.
	ErrInvalidEmail = errors.New("auth: invalid email address")

	// ErrUserDisabled indica una cuenta deshabilitada.
	ErrUserDisabled = errors.New("auth: user disabled")

	// ErrRefreshNotFound indica un refresh token desconocido.
	ErrRefreshNotFound = errors.New("auth: refresh token not found")

	// ErrRefreshExpired indica un refresh token vencido.
	ErrRefreshExpired = errors.New("auth: refresh token expired")

	// ErrReuseDetected indica replay de un refresh token ya consumido.
	// Como efecto lateral se revoca el linaje completo del token.
	ErrReuseDetected = errors.New("auth: refresh token reuse detected")

	// ErrInvalidState indica un state OAuth desconocido o ya consumido.
	ErrInvalidState = errors.New("auth: invalid oauth state")

	// ErrAmbiguousIdentity indica un enlace por email hacia una cuenta
	// que ya tiene un vínculo con ese mismo provider bajo otro subject.
	// Nunca se resuelve en silencio; requiere intervención.
	ErrAmbiguousIdentity = errors.New("auth: ambiguous identity link")

	// ErrWeakPassword indica un password que no cumple el mínimo.
	ErrWeakPassword = errors.New("auth: password too weak")
)

// Deps agrupa las dependencias compartidas por todos los services.
type Deps struct {
	Users      repository.UserRepository
	Identities repository.IdentityRepository
	Tokens     repository.TokenRepository

	Issuer     *jwt.Issuer
	RefreshTTL time.Duration
	Argon2     password.Params

	Providers *oauth.Registry
	Cache     cache.Client
	DeepLink  string

	// Now permite inyectar el reloj en tests. Nil usa time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// issuePair emite un access token y persiste un refresh token nuevo.
func (d Deps) issuePair(ctx context.Context, userID string) (*dto.TokenPairResponse, error) {
	access, accessExp, err := d.Issuer.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}

	opaque, err := token.GenerateOpaque(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh: %w", err)
	}

	now := d.now().UTC()
	refreshExp := now.Add(d.RefreshTTL)
	rec := &repository.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: token.SHA256Hex(opaque),
		IssuedAt:  now,
		ExpiresAt: refreshExp,
	}
	if err := d.Tokens.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist refresh: %w", err)
	}

	return &dto.TokenPairResponse{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     opaque,
		RefreshExpiresAt: refreshExp,
		TokenType:        "Bearer",
	}, nil
}

func toUserResponse(u *repository.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		Picture:   u.Picture,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}
