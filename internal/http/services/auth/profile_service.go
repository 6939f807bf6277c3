package auth

import (
	"context"
	"errors"

	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/http/dto"
)

// ProfileService expone el perfil del usuario autenticado.
type ProfileService struct {
	Deps
}

// NewProfileService construye el service.
func NewProfileService(deps Deps) *ProfileService {
	return &ProfileService{Deps: deps}
}

// Me retorna el perfil del usuario autenticado.
func (s *ProfileService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return toUserResponse(u), nil
}
