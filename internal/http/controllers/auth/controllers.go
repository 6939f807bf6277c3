// Package auth expone los handlers HTTP de autenticación.
//
// Los controllers validan el transporte (JSON, params) y traducen los
// errores sentinela de los services a AppError. Ninguna lógica de
// negocio vive acá.
package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moguapp/moguauth/internal/http/dto"
	httperrors "github.com/moguapp/moguauth/internal/http/errors"
	"github.com/moguapp/moguauth/internal/http/helpers"
	"github.com/moguapp/moguauth/internal/http/middlewares"
	authsvc "github.com/moguapp/moguauth/internal/http/services/auth"
	"github.com/moguapp/moguauth/internal/oauth"
)

// Controller agrupa los services de autenticación.
type Controller struct {
	Register *authsvc.RegisterService
	Login    *authsvc.LoginService
	Refresh  *authsvc.RefreshService
	Sessions *authsvc.SessionService
	Password *authsvc.PasswordService
	Social   *authsvc.SocialService
	Profile  *authsvc.ProfileService
}

// New construye el controller con services sobre las mismas deps.
func New(deps authsvc.Deps) *Controller {
	return &Controller{
		Register: authsvc.NewRegisterService(deps),
		Login:    authsvc.NewLoginService(deps),
		Refresh:  authsvc.NewRefreshService(deps),
		Sessions: authsvc.NewSessionService(deps),
		Password: authsvc.NewPasswordService(deps),
		Social:   authsvc.NewSocialService(deps),
		Profile:  authsvc.NewProfileService(deps),
	}
}

type loginResponse struct {
	User   *dto.UserResponse      `json:"user"`
	Tokens *dto.TokenPairResponse `json:"tokens"`
}

// HandleRegister maneja POST /v1/auth/register. No emite tokens; el
// cliente hace login a continuación.
func (c *Controller) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.Write(w, r, httperrors.BadRequest(err.Error()))
		return
	}

	user, err := c.Register.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailTaken):
			httperrors.Write(w, r, httperrors.Conflict("email already registered"))
		case errors.Is(err, authsvc.ErrWeakPassword):
			httperrors.Write(w, r, httperrors.BadRequest("password must have at least 8 characters"))
		case errors.Is(err, authsvc.ErrInvalidEmail):
			httperrors.Write(w, r, httperrors.BadRequest("invalid email address"))
		default:
			httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		}
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, user)
}

// HandleLogin maneja POST /v1/auth/login.
func (c *Controller) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.Write(w, r, httperrors.BadRequest(err.Error()))
		return
	}

	user, pair, err := c.Login.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidCredentials), errors.Is(err, authsvc.ErrUserDisabled):
			// Cuentas deshabilitadas responden igual que credenciales
			// inválidas para no revelar su existencia.
			httperrors.Write(w, r, httperrors.InvalidCredentials())
		default:
			httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		}
		return
	}
	helpers.WriteJSON(w, http.StatusOK, loginResponse{User: user, Tokens: pair})
}

// HandleRefresh maneja POST /v1/auth/refresh.
func (c *Controller) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.Write(w, r, httperrors.BadRequest(err.Error()))
		return
	}

	pair, err := c.Refresh.Refresh(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrRefreshNotFound):
			httperrors.Write(w, r, httperrors.Unauthorized("unknown refresh token"))
		case errors.Is(err, authsvc.ErrRefreshExpired):
			httperrors.Write(w, r, httperrors.Unauthorized("refresh token expired"))
		case errors.Is(err, authsvc.ErrReuseDetected):
			httperrors.Write(w, r, httperrors.Unauthorized("refresh token no longer valid"))
		default:
			httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		}
		return
	}
	helpers.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout maneja POST /v1/auth/logout.
func (c *Controller) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.Write(w, r, httperrors.BadRequest(err.Error()))
		return
	}
	if err := c.Sessions.Logout(r.Context(), req.RefreshToken); err != nil {
		httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogoutAll maneja POST /v1/auth/logout-all. Requiere access token.
func (c *Controller) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httperrors.Write(w, r, httperrors.Unauthorized("missing bearer token"))
		return
	}
	count, err := c.Sessions.LogoutAll(r.Context(), userID)
	if err != nil {
		httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutAllResponse{Revoked: count})
}

// HandleChangePassword maneja POST /v1/auth/password. Requiere access token.
func (c *Controller) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httperrors.Write(w, r, httperrors.Unauthorized("missing bearer token"))
		return
	}
	var req dto.ChangePasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.Write(w, r, httperrors.BadRequest(err.Error()))
		return
	}
	if err := c.Password.Change(r.Context(), userID, req); err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			httperrors.Write(w, r, httperrors.Unauthorized("current password is incorrect"))
		case errors.Is(err, authsvc.ErrWeakPassword):
			httperrors.Write(w, r, httperrors.BadRequest("password must have at least 8 characters"))
		default:
			httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe maneja GET /v1/me. Requiere access token.
func (c *Controller) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httperrors.Write(w, r, httperrors.Unauthorized("missing bearer token"))
		return
	}
	user, err := c.Profile.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			httperrors.Write(w, r, httperrors.Unauthorized("unknown user"))
			return
		}
		httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, user)
}

// HandleSocialLogin maneja GET /v1/auth/social/{provider}/login.
func (c *Controller) HandleSocialLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	resp, err := c.Social.LoginURL(r.Context(), provider)
	if err != nil {
		// Solo el nombre desconocido es un 404; un backend de cache
		// caído no debe disfrazarse de provider inexistente.
		if errors.Is(err, oauth.ErrUnknownProvider) {
			httperrors.Write(w, r, httperrors.NotFound("unknown provider"))
			return
		}
		httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// HandleSocialCallback maneja GET /v1/auth/social/{provider}/callback.
// En éxito redirige al deep link de la app con los tokens.
func (c *Controller) HandleSocialCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" {
		httperrors.Write(w, r, httperrors.BadRequest("missing authorization code"))
		return
	}

	res, err := c.Social.Callback(r.Context(), provider, code, state)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrUnknownProvider):
			httperrors.Write(w, r, httperrors.NotFound("unknown provider"))
		case errors.Is(err, authsvc.ErrInvalidState):
			httperrors.Write(w, r, httperrors.BadRequest("invalid or expired state"))
		case errors.Is(err, oauth.ErrInvalidCode):
			httperrors.Write(w, r, httperrors.BadRequest("invalid authorization code"))
		case errors.Is(err, oauth.ErrProviderError):
			httperrors.Write(w, r, httperrors.BadGateway("identity provider unavailable").WithErr(err))
		case errors.Is(err, authsvc.ErrAmbiguousIdentity):
			httperrors.Write(w, r, httperrors.Conflict("email already registered with another login method"))
		case errors.Is(err, authsvc.ErrUserDisabled):
			httperrors.Write(w, r, httperrors.Forbidden("account disabled"))
		default:
			httperrors.Write(w, r, httperrors.Internal().WithErr(err))
		}
		return
	}
	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}
