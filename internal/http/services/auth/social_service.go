package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/moguapp/moguauth/internal/cache"
	"github.com/moguapp/moguauth/internal/domain/repository"
	"github.com/moguapp/moguauth/internal/http/dto"
	"github.com/moguapp/moguauth/internal/metrics"
	"github.com/moguapp/moguauth/internal/oauth"
	"github.com/moguapp/moguauth/internal/observability/logger"
	"github.com/moguapp/moguauth/internal/security/token"
)

// stateTTL acota la vida del state anti-CSRF entre login y callback.
const stateTTL = 10 * time.Minute

// SocialService maneja el flujo de login social completo.
type SocialService struct {
	Deps
}

// NewSocialService construye el service.
func NewSocialService(deps Deps) *SocialService {
	return &SocialService{Deps: deps}
}

// LoginURL genera un state de un solo uso y la URL de autorización.
func (s *SocialService) LoginURL(ctx context.Context, providerName string) (*dto.SocialLoginResponse, error) {
	p, err := s.Providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	state, err := token.GenerateOpaque(24)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	if err := s.Cache.Set(ctx, stateKey(state), providerName, stateTTL); err != nil {
		return nil, fmt.Errorf("store state: %w", err)
	}

	return &dto.SocialLoginResponse{AuthURL: p.AuthURL(state)}, nil
}

// CallbackResult es el resultado del callback social.
type CallbackResult struct {
	User           *dto.UserResponse
	Pair           *dto.TokenPairResponse
	NeedOnboarding bool
	// RedirectURL es el deep link hacia la app móvil con los tokens.
	RedirectURL string
}

// Callback valida el state, canjea el code y resuelve el usuario local.
//
// Una identidad conocida inicia sesión; una desconocida crea la cuenta
// en pending_onboarding. Si el email del provider ya pertenece a una
// cuenta local, la identidad nueva se enlaza a esa cuenta de forma
// determinística; un segundo vínculo del mismo provider sobre la misma
// cuenta falla con ErrAmbiguousIdentity.
func (s *SocialService) Callback(ctx context.Context, providerName, code, state string) (*CallbackResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"), logger.Op("social_callback"),
		logger.Provider(providerName),
	)

	p, err := s.Providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	if err := s.consumeState(ctx, state, providerName); err != nil {
		metrics.SocialLoginTotal.WithLabelValues(providerName, "invalid_state").Inc()
		return nil, err
	}

	info, err := p.Exchange(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidCode):
			metrics.SocialLoginTotal.WithLabelValues(providerName, "invalid_code").Inc()
		default:
			metrics.SocialLoginTotal.WithLabelValues(providerName, "provider_error").Inc()
		}
		return nil, err
	}

	u, created, err := s.resolveUser(ctx, providerName, info)
	if err != nil {
		metrics.SocialLoginTotal.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		metrics.SocialLoginTotal.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}

	needOnboarding := u.Status == repository.StatusPendingOnboarding
	metrics.SocialLoginTotal.WithLabelValues(providerName, "ok").Inc()
	log.Info("social login completed",
		logger.UserID(u.ID),
		logger.String("created", strconv.FormatBool(created)),
	)

	return &CallbackResult{
		User:           toUserResponse(u),
		Pair:           pair,
		NeedOnboarding: needOnboarding,
		RedirectURL:    s.buildDeepLink(pair, needOnboarding),
	}, nil
}

// consumeState valida y elimina el state: un solo uso.
func (s *SocialService) consumeState(ctx context.Context, state, providerName string) error {
	if state == "" {
		return ErrInvalidState
	}
	stored, err := s.Cache.Get(ctx, stateKey(state))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return ErrInvalidState
		}
		return err
	}
	_ = s.Cache.Delete(ctx, stateKey(state))
	if stored != providerName {
		return ErrInvalidState
	}
	return nil
}

// resolveUser mapea el perfil externo a un usuario local, creándolo si
// es la primera vez que se ve esa identidad.
func (s *SocialService) resolveUser(ctx context.Context, providerName string, info *oauth.UserInfo) (*repository.User, bool, error) {
	ident, err := s.Identities.GetByProvider(ctx, providerName, info.ProviderUserID)
	if err == nil {
		u, err := s.Users.GetByID(ctx, ident.UserID)
		if err != nil {
			return nil, false, err
		}
		if u.Status == repository.StatusDisabled {
			return nil, false, ErrUserDisabled
		}
		return u, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	email := info.Email
	if email != "" {
		existing, err := s.Users.GetByEmail(ctx, email)
		if err == nil {
			return s.linkIdentity(ctx, existing, providerName, info)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	} else {
		// Sin email concedido: dirección sintética estable por identidad.
		email = fmt.Sprintf("%s_%s@social.invalid", providerName, info.ProviderUserID)
	}

	now := s.now().UTC()
	u := &repository.User{
		ID:        uuid.NewString(),
		Email:     email,
		Nickname:  info.Nickname,
		Picture:   info.Picture,
		Status:    repository.StatusPendingOnboarding,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, false, err
	}
	if err := s.Identities.Create(ctx, &repository.Identity{
		ID:             uuid.NewString(),
		UserID:         u.ID,
		Provider:       providerName,
		ProviderUserID: info.ProviderUserID,
		CreatedAt:      now,
	}); err != nil {
		// Compensación: sin identidad el usuario quedaría sin ningún
		// método de autenticación.
		if delErr := s.Users.Delete(ctx, u.ID); delErr != nil {
			logger.From(ctx).Error("orphan user cleanup failed",
				logger.UserID(u.ID), logger.Err(delErr))
		}
		return nil, false, err
	}
	return u, true, nil
}

// linkIdentity enlaza una identidad externa nueva a una cuenta local
// que comparte el email del perfil. Si la cuenta ya tiene un vínculo
// con ese provider (otro subject) el enlace es ambiguo y se rechaza.
func (s *SocialService) linkIdentity(ctx context.Context, u *repository.User, providerName string, info *oauth.UserInfo) (*repository.User, bool, error) {
	if u.Status == repository.StatusDisabled {
		return nil, false, ErrUserDisabled
	}

	idents, err := s.Identities.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, false, err
	}
	for _, ident := range idents {
		if ident.Provider == providerName {
			return nil, false, ErrAmbiguousIdentity
		}
	}

	if err := s.Identities.Create(ctx, &repository.Identity{
		ID:             uuid.NewString(),
		UserID:         u.ID,
		Provider:       providerName,
		ProviderUserID: info.ProviderUserID,
		CreatedAt:      s.now().UTC(),
	}); err != nil {
		return nil, false, err
	}

	logger.From(ctx).Info("external identity linked",
		logger.UserID(u.ID), logger.Provider(providerName),
	)
	return u, false, nil
}

// buildDeepLink arma la URL de redirección hacia la app móvil.
func (s *SocialService) buildDeepLink(pair *dto.TokenPairResponse, needOnboarding bool) string {
	q := url.Values{}
	q.Set("ok", "true")
	q.Set("need_onboarding", strconv.FormatBool(needOnboarding))
	q.Set("access_token", pair.AccessToken)
	q.Set("refresh_token", pair.RefreshToken)
	return s.DeepLink + "?" + q.Encode()
}

func stateKey(state string) string {
	return "oauth:state:" + state
}
