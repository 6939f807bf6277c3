// Package kakao implementa el provider de login de Kakao.
//
// Flujo: el cliente obtiene un authorization code en kauth.kakao.com,
// el servidor lo canjea por un access token y con él consulta el perfil
// en kapi.kakao.com. El ID numérico de Kakao es el identificador estable.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moguapp/moguauth/internal/oauth"
)

const (
	authURL     = "https://kauth.kakao.com/oauth/authorize"
	tokenURL    = "https://kauth.kakao.com/oauth/token"
	userInfoURL = "https://kapi.kakao.com/v2/user/me"
)

// Provider implementa oauth.Provider para Kakao.
type Provider struct {
	clientID     string
	clientSecret string
	redirectURL  string

	httpClient *http.Client
	// endpoints sobreescribibles en tests
	tokenURL    string
	userInfoURL string
}

// New crea el provider. clientSecret es opcional en Kakao.
func New(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenURL:     tokenURL,
		userInfoURL:  userInfoURL,
	}
}

func (p *Provider) Name() string { return "kakao" }

func (p *Provider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURL)
	q.Set("response_type", "code")
	q.Set("state", state)
	return authURL + "?" + q.Encode()
}

// Exchange canjea el code por un access token y consulta el perfil.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth.UserInfo, error) {
	accessToken, err := p.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return p.fetchProfile(ctx, accessToken)
}

func (p *Provider) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", p.clientID)
	form.Set("redirect_uri", p.redirectURL)
	form.Set("code", code)
	if p.clientSecret != "" {
		form.Set("client_secret", p.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", oauth.ErrProviderError, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", oauth.ErrProviderError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %v", oauth.ErrProviderError, err)
	}

	// Kakao responde 400 para codes inválidos o ya canjeados.
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return "", oauth.ErrInvalidCode
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint status %d", oauth.ErrProviderError, resp.StatusCode)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return "", fmt.Errorf("%w: malformed token response", oauth.ErrProviderError)
	}
	return tr.AccessToken, nil
}

func (p *Provider) fetchProfile(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oauth.ErrProviderError, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %v", oauth.ErrProviderError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", oauth.ErrProviderError, resp.StatusCode)
	}

	var ui struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname string `json:"nickname"`
				Picture  string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&ui); err != nil {
		return nil, fmt.Errorf("%w: malformed userinfo response", oauth.ErrProviderError)
	}
	if ui.ID == 0 {
		return nil, fmt.Errorf("%w: userinfo missing id", oauth.ErrProviderError)
	}

	return &oauth.UserInfo{
		ProviderUserID: strconv.FormatInt(ui.ID, 10),
		Email:          ui.KakaoAccount.Email,
		Nickname:       ui.KakaoAccount.Profile.Nickname,
		Picture:        ui.KakaoAccount.Profile.Picture,
	}, nil
}
