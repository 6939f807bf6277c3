package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/http/dto"
	"github.com/moguapp/moguauth/internal/observability/logger"
	"github.com/moguapp/moguauth/internal/security/password"
)

const minPasswordLen = 8

// RegisterService crea cuentas locales con email y password.
type RegisterService struct {
	Deps
}

// NewRegisterService construye el service.
func NewRegisterService(deps Deps) *RegisterService {
	return &RegisterService{Deps: deps}
}

// Register valida los datos y crea el usuario. No emite tokens: el login
// es un paso separado.
func (s *RegisterService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("register"))

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := password.Hash(req.Password, s.Argon2)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &repository.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: &hash,
		Nickname:     strings.TrimSpace(req.Nickname),
		Status:       repository.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.Info("user registered", logger.UserID(u.ID))
	return toUserResponse(u), nil
}
