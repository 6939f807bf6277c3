package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/http/dto"
	"github.com/moguapp/moguauth/internal/metrics"
	"github.com/moguapp/moguauth/internal/observability/logger"
	"github.com/moguapp/moguauth/internal/security/password"
)

// dummyHash consume el mismo costo de Argon2 cuando el email no existe,
// para que el tiempo de respuesta no delate cuentas registradas.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// LoginService autentica cuentas locales.
type LoginService struct {
	Deps
}

// NewLoginService construye el service.
func NewLoginService(deps Deps) *LoginService {
	return &LoginService{Deps: deps}
}

// Login verifica las credenciales y emite el par de tokens.
func (s *LoginService) Login(ctx context.Context, req dto.LoginRequest) (*dto.UserResponse, *dto.TokenPairResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("login"))

	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = password.Verify(req.Password, dummyHash)
			metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, nil, ErrInvalidCredentials
		}
		metrics.LoginTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	// Cuentas solo-sociales no tienen password local.
	if u.PasswordHash == nil {
		_, _ = password.Verify(req.Password, dummyHash)
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, nil, ErrInvalidCredentials
	}

	ok, err := password.Verify(req.Password, *u.PasswordHash)
	if err != nil || !ok {
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, nil, ErrInvalidCredentials
	}

	if u.Status == repository.StatusDisabled {
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, nil, ErrUserDisabled
	}

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		metrics.LoginTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	metrics.LoginTotal.WithLabelValues("ok").Inc()
	log.Info("user logged in", logger.UserID(u.ID))
	return toUserResponse(u), pair, nil
}
