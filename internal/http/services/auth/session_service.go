package auth

import (
	"context"
	"errors"

	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/observability/logger"
	"github.com/moguapp/moguauth/internal/security/token"
)

// SessionService cierra sesiones (logout y logout global).
type SessionService struct {
	Deps
}

// NewSessionService construye el service.
func NewSessionService(deps Deps) *SessionService {
	return &SessionService{Deps: deps}
}

// Logout revoca el refresh token presentado. Es idempotente: tokens
// desconocidos o ya revocados no producen error, el resultado observable
// es el mismo.
func (s *SessionService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	rec, err := s.Tokens.GetByHash(ctx, token.SHA256Hex(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.Tokens.Revoke(ctx, rec.ID); err != nil {
		return err
	}
	logger.From(ctx).Info("session closed",
		logger.Layer("service"), logger.Op("logout"),
		logger.UserID(rec.UserID), logger.TokenID(rec.ID))
	return nil
}

// LogoutAll revoca todos los refresh tokens vivos del usuario.
// Los access tokens ya emitidos siguen siendo válidos hasta su exp;
// con TTLs de minutos la ventana es acotada.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) (int, error) {
	count, err := s.Tokens.RevokeAllByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	logger.From(ctx).Info("all sessions closed",
		logger.Layer("service"), logger.Op("logout_all"),
		logger.UserID(userID), logger.Count(count))
	return count, nil
}
