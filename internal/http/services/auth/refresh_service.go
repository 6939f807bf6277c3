package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/http/dto"
	"github.com/moguapp/moguauth/internal/metrics"
	"github.com/moguapp/moguauth/internal/observability/logger"
	"github.com/moguapp/moguauth/internal/security/token"
)

// RefreshService rota refresh tokens y detecta replay.
type RefreshService struct {
	Deps
}

// NewRefreshService construye el service.
func NewRefreshService(deps Deps) *RefreshService {
	return &RefreshService{Deps: deps}
}

// Refresh consume el refresh token presentado y emite un par nuevo.
//
// La rotación es atómica en el repositorio: ante presentaciones
// concurrentes del mismo token exactamente una gana y las demás reciben
// ErrReuseDetected. Un replay detectado revoca el linaje completo del
// token, cerrando también la sesión del portador legítimo.
func (s *RefreshService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.TokenPairResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("refresh"))

	if req.RefreshToken == "" {
		metrics.RefreshTotal.WithLabelValues("not_found").Inc()
		return nil, ErrRefreshNotFound
	}
	oldHash := token.SHA256Hex(req.RefreshToken)

	opaque, err := token.GenerateOpaque(32)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("generate refresh: %w", err)
	}

	now := s.now().UTC()
	// UserID se completa desde el registro viejo dentro de Rotate; acá
	// lo resolvemos tras la rotación para armar el access token.
	next := &repository.RefreshToken{
		ID:        uuid.NewString(),
		TokenHash: token.SHA256Hex(opaque),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.RefreshTTL),
	}

	// El registro viejo fija el dueño del sucesor.
	old, err := s.Tokens.GetByHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RefreshTotal.WithLabelValues("not_found").Inc()
			return nil, ErrRefreshNotFound
		}
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	next.UserID = old.UserID

	res, err := s.Tokens.Rotate(ctx, oldHash, next, now)
	switch {
	case err == nil:
		// ok

	case errors.Is(err, repository.ErrNotFound):
		metrics.RefreshTotal.WithLabelValues("not_found").Inc()
		return nil, ErrRefreshNotFound

	case errors.Is(err, repository.ErrTokenExpired):
		metrics.RefreshTotal.WithLabelValues("expired").Inc()
		return nil, ErrRefreshExpired

	case errors.Is(err, repository.ErrTokenReused):
		// Replay: el repositorio ya revocó el linaje completo dentro de
		// la misma transacción que detectó el reuse. Una revocación
		// fallida llega como error y cae en el default.
		metrics.RefreshTotal.WithLabelValues("reuse_detected").Inc()
		metrics.ReuseDetectedTotal.Inc()
		log.Warn("refresh token reuse detected, lineage revoked",
			logger.UserID(old.UserID),
			logger.TokenID(old.ID),
		)
		return nil, ErrReuseDetected

	default:
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	access, accessExp, err := s.Issuer.IssueAccess(res.New.UserID)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue access: %w", err)
	}

	metrics.RefreshTotal.WithLabelValues("ok").Inc()
	log.Debug("refresh token rotated",
		logger.UserID(res.New.UserID), logger.TokenID(res.New.ID))

	return &dto.TokenPairResponse{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     opaque,
		RefreshExpiresAt: res.New.ExpiresAt,
		TokenType:        "Bearer",
	}, nil
}
