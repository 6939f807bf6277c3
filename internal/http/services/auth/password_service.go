package auth

import (
	"context"
	"errors"

	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/http/dto"
	"github.com/moguapp/moguauth/internal/observability/logger"
	"github.com/moguapp/moguauth/internal/security/password"
)

// PasswordService cambia el password de cuentas locales.
type PasswordService struct {
	Deps
}

// NewPasswordService construye el service.
func NewPasswordService(deps Deps) *PasswordService {
	return &PasswordService{Deps: deps}
}

// Change verifica el password actual, persiste el nuevo hash y revoca
// todos los refresh tokens del usuario. Las demás sesiones deben volver
// a autenticarse.
func (s *PasswordService) Change(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("change_password"))

	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if u.PasswordHash == nil {
		return ErrInvalidCredentials
	}

	ok, err := password.Verify(req.CurrentPassword, *u.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if len(req.NewPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	hash, err := password.Hash(req.NewPassword, s.Argon2)
	if err != nil {
		return err
	}
	u.PasswordHash = &hash
	u.UpdatedAt = s.now().UTC()
	if err := s.Users.Update(ctx, u); err != nil {
		return err
	}

	revoked, err := s.Tokens.RevokeAllByUser(ctx, userID)
	if err != nil {
		log.Error("post-change revocation failed", logger.UserID(userID), logger.Err(err))
		return err
	}
	log.Info("password changed", logger.UserID(userID), logger.Count(revoked))
	return nil
}
