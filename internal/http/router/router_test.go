package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cachemem "github.com/moguapp/moguauth/internal/cache/memory"
	"github.com/moguapp/moguauth/internal/config"
	authsvc "github.com/moguapp/moguauth/internal/http/services/auth"
	"github.com/moguapp/moguauth/internal/jwt"
	"github.com/moguapp/moguauth/internal/oauth"
	"github.com/moguapp/moguauth/internal/rate"
	"github.com/moguapp/moguauth/internal/security/password"
	storemem "github.com/moguapp/moguauth/internal/store/memory"
)

func newTestServer(t *testing.T, rateCfg config.RateConfig) *httptest.Server {
	t.Helper()

	s := storemem.New()
	c := cachemem.New()
	issuer := jwt.NewIssuer([]byte("test-secret"), "moguauth", "moguapp", 15*time.Minute)

	deps := authsvc.Deps{
		Users:      s.Users(),
		Identities: s.Identities(),
		Tokens:     s.Tokens(),
		Issuer:     issuer,
		RefreshTTL: 14 * 24 * time.Hour,
		Argon2:     password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32},
		Providers:  oauth.NewRegistry(),
		Cache:      c,
		DeepLink:   "moguapp://oauth",
	}

	h := New(Options{
		Deps:    deps,
		Issuer:  issuer,
		Limiter: rate.NewLimiter(c, time.Minute),
		Rate:    rateCfg,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type userResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

type authResponse struct {
	User   userResponse `json:"user"`
	Tokens tokenPair    `json:"tokens"`
}

// signUp registra la cuenta y hace login para obtener tokens.
func signUp(t *testing.T, srv *httptest.Server, email, pass string) authResponse {
	t.Helper()
	resp := postJSON(t, srv.URL+"/v1/auth/register", map[string]string{
		"email": email, "password": pass,
	}, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/v1/auth/login", map[string]string{
		"email": email, "password": pass,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[authResponse](t, resp)
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, config.RateConfig{})

	// Register crea la cuenta sin emitir tokens
	resp := postJSON(t, srv.URL+"/v1/auth/register", map[string]string{
		"email":    "flow@example.com",
		"password": "password-123",
		"nickname": "flow",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	created := decode[userResponse](t, resp)
	require.Equal(t, "flow@example.com", created.Email)
	require.Equal(t, "active", created.Status)

	// Login emite el par de tokens
	resp = postJSON(t, srv.URL+"/v1/auth/login", map[string]string{
		"email": "flow@example.com", "password": "password-123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reg := decode[authResponse](t, resp)
	require.Equal(t, created.ID, reg.User.ID)
	require.NotEmpty(t, reg.Tokens.AccessToken)
	require.Equal(t, "Bearer", reg.Tokens.TokenType)

	// Me con el access token
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Tokens.AccessToken)
	meResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, meResp.StatusCode)
	me := decode[map[string]any](t, meResp)
	require.Equal(t, "flow@example.com", me["email"])

	// Me sin token
	noAuth, err := http.Get(srv.URL + "/v1/me")
	require.NoError(t, err)
	noAuth.Body.Close()
	require.Equal(t, http.StatusUnauthorized, noAuth.StatusCode)

	// Refresh rota el token
	resp = postJSON(t, srv.URL+"/v1/auth/refresh", map[string]string{
		"refresh_token": reg.Tokens.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := decode[tokenPair](t, resp)
	require.NotEqual(t, reg.Tokens.RefreshToken, rotated.RefreshToken)

	// Replay del token viejo: 401 y el linaje cae
	resp = postJSON(t, srv.URL+"/v1/auth/refresh", map[string]string{
		"refresh_token": reg.Tokens.RefreshToken,
	}, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/v1/auth/refresh", map[string]string{
		"refresh_token": rotated.RefreshToken,
	}, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginEndpointAntiEnumeration(t *testing.T) {
	srv := newTestServer(t, config.RateConfig{})

	resp := postJSON(t, srv.URL+"/v1/auth/register", map[string]string{
		"email": "real@example.com", "password": "password-123",
	}, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	read := func(body map[string]string) (int, string) {
		resp := postJSON(t, srv.URL+"/v1/auth/login", body, nil)
		defer resp.Body.Close()
		var e struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
		return resp.StatusCode, e.Error.Code + "|" + e.Error.Message
	}

	stGhost, bodyGhost := read(map[string]string{"email": "ghost@example.com", "password": "x"})
	stWrong, bodyWrong := read(map[string]string{"email": "real@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, stGhost)
	require.Equal(t, stGhost, stWrong)
	require.Equal(t, bodyGhost, bodyWrong)
}

func TestLogoutEndpoints(t *testing.T) {
	srv := newTestServer(t, config.RateConfig{})

	reg := signUp(t, srv, "out@example.com", "password-123")

	// logout es 204 e idempotente
	for i := 0; i < 2; i++ {
		resp := postJSON(t, srv.URL+"/v1/auth/logout", map[string]string{
			"refresh_token": reg.Tokens.RefreshToken,
		}, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	// logout-all requiere bearer
	resp := postJSON(t, srv.URL+"/v1/auth/logout-all", map[string]string{}, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/v1/auth/logout-all", map[string]string{}, map[string]string{
		"Authorization": "Bearer " + reg.Tokens.AccessToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]int](t, resp)
	require.Equal(t, 0, out["revoked"]) // ya se había cerrado con logout
}

func TestRateLimitOnLogin(t *testing.T) {
	srv := newTestServer(t, config.RateConfig{
		Enabled:    true,
		Window:     time.Minute,
		LoginLimit: 3,
	})

	var last int
	for i := 0; i < 5; i++ {
		resp := postJSON(t, srv.URL+"/v1/auth/login", map[string]string{
			"email": "x@example.com", "password": "nope-nope",
		}, nil)
		resp.Body.Close()
		last = resp.StatusCode
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, config.RateConfig{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

type staticProvider struct{ name string }

func (p staticProvider) Name() string { return p.name }
func (p staticProvider) AuthURL(state string) string {
	return "https://auth.example.com/authorize?state=" + state
}
func (p staticProvider) Exchange(context.Context, string) (*oauth.UserInfo, error) {
	return &oauth.UserInfo{ProviderUserID: "s-1"}, nil
}

type failCache struct{}

func (failCache) Get(context.Context, string) (string, error) {
	return "", errors.New("cache down")
}
func (failCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("cache down")
}
func (failCache) Delete(context.Context, string) error {
	return errors.New("cache down")
}
func (failCache) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("cache down")
}

func TestSocialLoginEndpointErrors(t *testing.T) {
	s := storemem.New()
	reg := oauth.NewRegistry()
	reg.Register(staticProvider{name: "kakao"})
	issuer := jwt.NewIssuer([]byte("test-secret"), "moguauth", "moguapp", 15*time.Minute)

	h := New(Options{
		Deps: authsvc.Deps{
			Users: s.Users(), Identities: s.Identities(), Tokens: s.Tokens(),
			Issuer: issuer, RefreshTTL: time.Hour,
			Providers: reg, Cache: failCache{}, DeepLink: "moguapp://oauth",
		},
		Issuer: issuer,
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	// Provider no registrado: 404.
	resp, err := http.Get(srv.URL + "/v1/auth/social/github/login")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Provider registrado pero backend de cache caído: falla interna,
	// no un falso "unknown provider".
	resp, err = http.Get(srv.URL + "/v1/auth/social/kakao/login")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestReadyzFailure(t *testing.T) {
	s := storemem.New()
	c := cachemem.New()
	issuer := jwt.NewIssuer([]byte("test-secret"), "moguauth", "moguapp", 15*time.Minute)
	h := New(Options{
		Deps: authsvc.Deps{
			Users: s.Users(), Identities: s.Identities(), Tokens: s.Tokens(),
			Issuer: issuer, RefreshTTL: time.Hour,
			Argon2:    password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32},
			Providers: oauth.NewRegistry(), Cache: c,
		},
		Issuer: issuer,
		Ready:  func(context.Context) error { return context.DeadlineExceeded },
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
